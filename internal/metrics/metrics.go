package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Resolver outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder receives daemon measurements.
type Recorder interface {
	ObserveResolve(outcome string, usernames int, took time.Duration)
	SetBadgeCount(count int)
}

// Provider records into a private Prometheus registry.
type Provider struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	usernames       prometheus.Histogram
	badgeCount      prometheus.Gauge
}

// New returns a Prometheus-backed recorder, or a no-op one when addr is
// empty.
func New(addr string) Recorder {
	if addr == "" {
		return Noop{}
	}
	return NewProvider()
}

// NewProvider registers the streamtabs metrics on a fresh registry.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Provider{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streamtabs_resolver_requests_total",
			Help: "Total number of status resolver requests by outcome",
		}, []string{"outcome"}),

		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamtabs_resolver_duration_seconds",
			Help:    "Status resolver request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		usernames: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamtabs_resolver_usernames",
			Help:    "Number of usernames per resolver request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),

		badgeCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "streamtabs_badge_count",
			Help: "Current aggregate online count shown on the badge",
		}),
	}
}

func (p *Provider) ObserveResolve(outcome string, usernames int, took time.Duration) {
	p.requestsTotal.WithLabelValues(outcome).Inc()
	p.requestDuration.Observe(took.Seconds())
	p.usernames.Observe(float64(usernames))
}

func (p *Provider) SetBadgeCount(count int) {
	p.badgeCount.Set(float64(count))
}

// Handler exposes the registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Noop is the recorder used when metrics are disabled.
type Noop struct{}

func (Noop) ObserveResolve(_ string, _ int, _ time.Duration) {}
func (Noop) SetBadgeCount(_ int)                             {}

// Server serves /metrics for a Provider.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer returns nil when r is not a Provider, so callers can skip it.
func NewServer(addr string, r Recorder, logger *zap.Logger) *Server {
	p, ok := r.(*Provider)
	if !ok || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

// Start serves until Stop. Safe on a nil receiver.
func (s *Server) Start() {
	if s == nil {
		return
	}
	s.logger.Info("metrics server starting", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("metrics server error", zap.Error(err))
	}
}

// Stop shuts the server down. Safe on a nil receiver.
func (s *Server) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	_ = s.srv.Shutdown(ctx)
}
