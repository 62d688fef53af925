package rpc

import (
	"context"
	"fmt"

	"github.com/matheus3301/streamtabs/internal/stream"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client sends runtime messages to the daemon. It implements the
// reconciler's Resolver and BadgeUpdater.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon's Unix domain socket. The connection is lazy;
// the first call reports an unreachable daemon.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send encodes msg, invokes SendMessage and decodes the response into out.
// out may be nil.
func (c *Client) Send(ctx context.Context, msg any, out any) error {
	in, err := EncodeStruct(msg)
	if err != nil {
		return err
	}
	resp := new(structpb.Value)
	if err := c.conn.Invoke(ctx, SendMessageMethod, in, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return DecodeValue(resp, out)
}

func (c *Client) FetchStreamerStatus(ctx context.Context, usernames []string) ([]stream.Status, error) {
	var out []stream.Status
	err := c.Send(ctx, FetchStreamerStatus{Action: ActionFetchStreamerStatus, Usernames: usernames}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetBadgeText(ctx context.Context, show bool) error {
	return c.Send(ctx, SetBadgeText{Action: ActionSetBadgeText, SetBadgeText: show}, nil)
}

func (c *Client) SetBadgeCount(ctx context.Context, count int) error {
	return c.Send(ctx, SetBadgeCount{Action: ActionSetBadgeCount, Count: count}, nil)
}

// Badge returns the daemon's current badge.
func (c *Client) Badge(ctx context.Context) (BadgeState, error) {
	var out BadgeState
	err := c.Send(ctx, Simple{Action: ActionGetBadge}, &out)
	return out, err
}

// Ping checks the daemon is serving.
func (c *Client) Ping(ctx context.Context) (Pong, error) {
	var out Pong
	err := c.Send(ctx, Simple{Action: ActionPing}, &out)
	return out, err
}
