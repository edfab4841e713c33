package middlewares

import (
	"context"

	"github.com/dropDatabas3/workplane/internal/authz"
	"github.com/dropDatabas3/workplane/internal/registry"
	"github.com/dropDatabas3/workplane/internal/token"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyTenant
	ctxKeyClaims
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request ID del contexto, o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// WithTenantContext liga el tenant resuelto al contexto del request.
func WithTenantContext(ctx context.Context, tc *registry.TenantContext) context.Context {
	return context.WithValue(ctx, ctxKeyTenant, tc)
}

// GetTenantContext devuelve el tenant ligado, o nil si el request no pasó
// por la resolución.
func GetTenantContext(ctx context.Context) *registry.TenantContext {
	v, _ := ctx.Value(ctxKeyTenant).(*registry.TenantContext)
	return v
}

// WithClaims guarda las claims verificadas del token.
func WithClaims(ctx context.Context, c *token.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// GetClaims devuelve las claims del contexto, o nil si el request no está
// autenticado.
func GetClaims(ctx context.Context) *token.Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*token.Claims)
	return v
}

// ActorFrom arma el actor de autorización a partir de las claims del
// contexto. Devuelve nil si no hay claims o el rol no es reconocido.
func ActorFrom(ctx context.Context) *authz.Actor {
	c := GetClaims(ctx)
	if c == nil {
		return nil
	}
	role, err := authz.ParseRole(c.Role)
	if err != nil {
		return nil
	}
	return &authz.Actor{ID: c.UserID, Role: role}
}
