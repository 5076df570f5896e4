// Package interceptors carries request correlation ids through HTTP handlers
// and gRPC calls.
package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors/constants"
)

// WithRequestIDs stores the correlation ids in ctx. Empty values are skipped.
func WithRequestIDs(ctx context.Context, requestID, idempotencyKey string) context.Context {
	if requestID != "" {
		ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
	}
	if idempotencyKey != "" {
		ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
	}
	return ctx
}

// RequestIDFromContext returns the request id, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, constants.ContextKeyRequestID, constants.HeaderRequestID)
}

// IdempotencyKeyFromContext returns the idempotency key, or "".
func IdempotencyKeyFromContext(ctx context.Context) string {
	return valueFromContext(ctx, constants.ContextKeyIdempotencyKey, constants.HeaderIdempotencyKey)
}

func valueFromContext(ctx context.Context, key any, header string) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(header); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

func fromMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return WithRequestIDs(ctx, first(constants.HeaderRequestID), first(constants.HeaderIdempotencyKey))
}

// UnaryServerInterceptor lifts x-request-id and x-idempotency-key from the
// incoming metadata into the context and logs each call.
func UnaryServerInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx = fromMetadata(ctx)
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.InfoContext(ctx, "grpc call",
			"method", info.FullMethod,
			"request_id", RequestIDFromContext(ctx),
			"idempotency_key", IdempotencyKeyFromContext(ctx),
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

// StreamServerInterceptor is the streaming counterpart of
// UnaryServerInterceptor.
func StreamServerInterceptor(logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := fromMetadata(ss.Context())
		logger.InfoContext(ctx, "grpc stream",
			"method", info.FullMethod,
			"request_id", RequestIDFromContext(ctx),
		)
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }
