package daemon

import (
	"context"
	"time"

	"github.com/matheus3301/streamtabs/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// logRequests logs every runtime message with its action and outcome.
func logRequests(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		action := ""
		if msg, ok := req.(*structpb.Struct); ok {
			action = rpc.ActionOf(msg)
		}
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("action", action),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			logger.Warn("runtime message failed", append(fields, zap.String("code", grpcstatus.Code(err).String()), zap.Error(err))...)
		} else {
			logger.Debug("runtime message", fields...)
		}
		return resp, err
	}
}
