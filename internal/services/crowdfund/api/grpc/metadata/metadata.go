// Package metadata defines the request headers the crowdfund gRPC surface
// reads and writes, and the interceptors that turn them into request context.
package metadata

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/logger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/requestctx"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
)

// RequestIDHeader is the gRPC metadata key for request correlation IDs.
const RequestIDHeader = "x-crowdfund-request-id"

// AuthorizationHeader carries "Bearer <identity grant>".
const AuthorizationHeader = "authorization"

// GrantHeader carries a bare identity grant for callers that cannot set
// authorization.
const GrantHeader = "x-crowdfund-identity-grant"

const bearerPrefix = "bearer "

// NewRequestID returns a random request id.
func NewRequestID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// RequestIDInterceptor makes sure every unary call carries a request id,
// echoing it back as a response header.
func RequestIDInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = NewRequestID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		requestID := strings.TrimSpace(FirstMetadataValue(md, RequestIDHeader))
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

// GrantFromMetadata extracts the identity grant from incoming metadata.
func GrantFromMetadata(md metadata.MD) string {
	if value := strings.TrimSpace(FirstMetadataValue(md, AuthorizationHeader)); value != "" {
		if len(value) > len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(value[len(bearerPrefix):])
		}
		return ""
	}
	return strings.TrimSpace(FirstMetadataValue(md, GrantHeader))
}

// GrantInterceptor verifies the caller's identity grant and stores its
// subject as the request principal. Calls without a grant proceed
// anonymously; writes then fail authorization downstream.
func GrantInterceptor(cfg auth.GrantConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		grant := GrantFromMetadata(md)
		if grant == "" {
			return handler(ctx, req)
		}
		claims, err := auth.VerifyGrant(grant, cfg)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(auth.WithPrincipal(ctx, claims.Subject), req)
	}
}

// AccessLogInterceptor writes one entry per unary call.
func AccessLogInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []any{
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestctx.RequestIDFromContext(ctx),
		}
		switch code {
		case codes.OK:
			log.Info("grpc call", fields...)
		case codes.Internal, codes.Unknown, codes.DataLoss:
			log.Error("grpc call", append(fields, "error", err)...)
		default:
			log.Warn("grpc call", append(fields, "error", err)...)
		}
		return resp, err
	}
}
