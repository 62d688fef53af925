package twitch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/metrics"
	"github.com/matheus3301/streamtabs/internal/stream"
	"go.uber.org/zap"
)

// MaxLoginsPerRequest is the Helix limit on user_login parameters.
const MaxLoginsPerRequest = 100

// tokenSkew renews an app token this long before it expires.
const tokenSkew = time.Minute

// Client resolves live status through the Twitch Helix API.
type Client struct {
	cfg     config.TwitchConfig
	http    *http.Client
	metrics metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock replaces time.Now for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Helix client. rec may be nil.
func New(cfg config.TwitchConfig, rec metrics.Recorder, logger *zap.Logger, opts ...Option) *Client {
	if rec == nil {
		rec = metrics.Noop{}
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 15 * time.Second},
		metrics: rec,
		logger:  logger,
		now:     time.Now,
		token:   cfg.AccessToken,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchStreamerStatus returns one entry per requested username, in request
// order. Usernames missing from the live set get the offline variant.
func (c *Client) FetchStreamerStatus(ctx context.Context, usernames []string) ([]stream.Status, error) {
	start := c.now()
	live, err := c.fetchLive(ctx, usernames)
	took := c.now().Sub(start)
	if err != nil {
		c.metrics.ObserveResolve(metrics.OutcomeError, len(usernames), took)
		return nil, err
	}
	c.metrics.ObserveResolve(metrics.OutcomeOK, len(usernames), took)

	out := make([]stream.Status, 0, len(usernames))
	for _, u := range usernames {
		s, ok := live[strings.ToLower(u)]
		if !ok {
			out = append(out, stream.Offline(u))
			continue
		}
		out = append(out, stream.Status{
			Username: u,
			Channel: &stream.Channel{
				DisplayName: s.UserName,
				Title:       s.Title,
				Game:        s.GameName,
				ViewerCount: s.ViewerCount,
				LiveSince:   s.StartedAt,
			},
		})
	}
	c.logger.Debug("helix streams resolved",
		zap.Int("usernames", len(usernames)),
		zap.Int("live", len(live)),
		zap.Duration("took", took),
	)
	return out, nil
}

func (c *Client) fetchLive(ctx context.Context, usernames []string) (map[string]helixStream, error) {
	live := make(map[string]helixStream)
	for chunk := range slices.Chunk(usernames, MaxLoginsPerRequest) {
		streams, err := c.getStreams(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, s := range streams {
			if s.Type != "" && s.Type != "live" {
				continue
			}
			live[strings.ToLower(s.UserLogin)] = s
		}
	}
	return live, nil
}

func (c *Client) getStreams(ctx context.Context, logins []string) ([]helixStream, error) {
	q := url.Values{}
	for _, l := range logins {
		q.Add("user_login", l)
	}
	q.Set("first", fmt.Sprint(MaxLoginsPerRequest))

	token, err := c.appToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.APIBaseURL, "/")+"/streams?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", c.cfg.ClientID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helix streams: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError("helix streams", resp)
	}

	var body streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode helix streams: %w", err)
	}
	return body.Data, nil
}

// appToken returns the configured static token, or a cached
// client-credentials token when a client secret is set.
func (c *Client) appToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.ClientSecret == "" {
		return c.token, nil
	}
	if c.token != "" && (c.expires.IsZero() || c.now().Before(c.expires)) {
		return c.token, nil
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitch token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError("twitch token", resp)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode twitch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("twitch token: empty access_token")
	}
	c.token = tok.AccessToken
	c.expires = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	c.logger.Info("twitch app token refreshed", zap.Time("expires", c.expires))
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.ClientSecret != "" {
		c.token = ""
		c.expires = time.Time{}
	}
}

// APIError is a non-200 Helix or token endpoint response.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func decodeError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body errorResponse
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
