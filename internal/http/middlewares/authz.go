package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/workplane/internal/authz"
	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/metrics"
)

// RequirePolicy evalúa una policy de autorización sobre el actor del
// request. Corre después de WithAuth; el tenant scoping ya pasó.
func RequirePolicy(p authz.Policy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := p.Evaluate(ActorFrom(r.Context()), r)
			if !d.Allowed {
				metrics.AuthRejection(d.Reason)
				httperrors.WriteError(w, r, mapDecision(d))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func mapDecision(d authz.Decision) error {
	switch d.Reason {
	case authz.ReasonAuthRequired:
		return httperrors.ErrAuthRequired
	case authz.ReasonInsufficientRole:
		return httperrors.ErrInsufficientRole
	case authz.ReasonOwnershipUnknown:
		return httperrors.ErrOwnershipUnknown
	default:
		return httperrors.ErrInsufficientPermissions
	}
}
