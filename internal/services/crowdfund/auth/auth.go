// Package auth decides whether the current request may act for an identity.
//
// A request acts for its principal, the subject of a verified identity grant,
// and additionally for any invoker identity the engine adds while moving its
// own escrowed funds.
package auth

import (
	"context"
	"slices"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/requestctx"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

// Authorizer checks that the caller has authorized acting for id.
type Authorizer interface {
	RequireAuth(ctx context.Context, id identity.ID) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, id identity.ID) error

// RequireAuth calls f.
func (f AuthorizerFunc) RequireAuth(ctx context.Context, id identity.ID) error {
	return f(ctx, id)
}

type invokersContextKey struct{}

// WithPrincipal records the verified caller identity.
func WithPrincipal(ctx context.Context, id identity.ID) context.Context {
	return requestctx.WithPrincipal(ctx, id.String())
}

// PrincipalFromContext returns the verified caller identity, zero when absent.
func PrincipalFromContext(ctx context.Context) identity.ID {
	return identity.ID(requestctx.PrincipalFromContext(ctx))
}

// WithInvoker adds an identity the current call acts for in addition to the
// principal.
func WithInvoker(ctx context.Context, id identity.ID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	existing := invokersFromContext(ctx)
	if slices.Contains(existing, id) {
		return ctx
	}
	next := make([]identity.ID, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, id)
	return context.WithValue(ctx, invokersContextKey{}, next)
}

func invokersFromContext(ctx context.Context) []identity.ID {
	if ctx == nil {
		return nil
	}
	invokers, _ := ctx.Value(invokersContextKey{}).([]identity.ID)
	return invokers
}

// ContextAuthorizer authorizes the principal and invokers recorded in context.
type ContextAuthorizer struct{}

// RequireAuth implements Authorizer.
func (ContextAuthorizer) RequireAuth(ctx context.Context, id identity.ID) error {
	if id.IsZero() {
		return apperrors.New(apperrors.CodeInvalidIdentity, "identity is required")
	}
	if slices.Contains(invokersFromContext(ctx), id) {
		return nil
	}
	principal := PrincipalFromContext(ctx)
	if principal.IsZero() {
		return apperrors.New(apperrors.CodeUnauthenticated, "caller identity is not authenticated")
	}
	if principal != id {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized, "caller is not authorized for identity", map[string]string{
			"principal": principal.String(),
			"identity":  id.String(),
		})
	}
	return nil
}

var _ Authorizer = ContextAuthorizer{}
