package api

import (
	"context"
	"time"

	"github.com/matheus3301/streamtabs/internal/badge"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/rpc"
	"github.com/matheus3301/streamtabs/internal/stream"
	"github.com/matheus3301/streamtabs/internal/subscription"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RuntimeService implements the Runtime gRPC service: the daemon end of the
// popup's runtime messages.
type RuntimeService struct {
	profile   string
	startedAt time.Time
	resolver  reconcile.Resolver
	badge     *badge.Badge
	logger    *zap.Logger
}

// NewRuntimeService creates a runtime service backed by a status resolver and
// the daemon's badge.
func NewRuntimeService(profile string, resolver reconcile.Resolver, b *badge.Badge, logger *zap.Logger) *RuntimeService {
	return &RuntimeService{
		profile:   profile,
		startedAt: time.Now(),
		resolver:  resolver,
		badge:     b,
		logger:    logger,
	}
}

func (s *RuntimeService) SendMessage(ctx context.Context, msg *structpb.Struct) (*structpb.Value, error) {
	action := rpc.ActionOf(msg)
	switch action {
	case rpc.ActionFetchStreamerStatus:
		var req rpc.FetchStreamerStatus
		if err := rpc.DecodeStruct(msg, &req); err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "%s: %v", action, err)
		}
		return s.fetchStreamerStatus(ctx, req.Usernames)

	case rpc.ActionSetBadgeText:
		var req rpc.SetBadgeText
		if err := rpc.DecodeStruct(msg, &req); err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "%s: %v", action, err)
		}
		if err := s.badge.SetBadgeText(ctx, req.SetBadgeText); err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "%s: %v", action, err)
		}
		return encode(rpc.Ack{OK: true})

	case rpc.ActionSetBadgeCount:
		var req rpc.SetBadgeCount
		if err := rpc.DecodeStruct(msg, &req); err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "%s: %v", action, err)
		}
		if err := s.badge.SetBadgeCount(ctx, req.Count); err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "%s: %v", action, err)
		}
		return encode(rpc.Ack{OK: true})

	case rpc.ActionGetBadge:
		st := s.badge.State()
		return encode(rpc.BadgeState{Text: st.Text, Enabled: st.Enabled, Count: st.Count})

	case rpc.ActionPing:
		return encode(rpc.Pong{Profile: s.profile, UptimeMs: time.Since(s.startedAt).Milliseconds()})

	case "":
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "message has no action")
	default:
		return nil, grpcstatus.Errorf(codes.Unimplemented, "unknown action %q", action)
	}
}

// fetchStreamerStatus normalizes and deduplicates the request, then asks the
// resolver. An empty request never reaches the resolver.
func (s *RuntimeService) fetchStreamerStatus(ctx context.Context, usernames []string) (*structpb.Value, error) {
	seen := make(map[string]struct{}, len(usernames))
	var clean []string
	for _, u := range usernames {
		n := subscription.Normalize(u)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		clean = append(clean, n)
	}
	if len(clean) == 0 {
		return encode([]stream.Status{})
	}

	statuses, err := s.resolver.FetchStreamerStatus(ctx, clean)
	if err != nil {
		s.logger.Warn("status resolver failed", zap.Int("usernames", len(clean)), zap.Error(err))
		return nil, grpcstatus.Errorf(codes.Unavailable, "fetch streamer status: %v", err)
	}
	return encode(statuses)
}

func encode(v any) (*structpb.Value, error) {
	val, err := rpc.EncodeValue(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return val, nil
}
