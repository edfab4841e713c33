package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/registry"
)

// WithTenant resuelve el tenant del request a partir del header y liga el
// TenantContext. Ningún handler de negocio corre sin pasar por acá: sin
// tenant ligado no hay acceso a datos.
func WithTenant(resolver *registry.Resolver, header string) Middleware {
	if header == "" {
		header = "X-Tenant-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				httperrors.WriteError(w, r, httperrors.ErrTenantIDMissing)
				return
			}

			tc, err := resolver.Resolve(r.Context(), raw)
			if err != nil {
				httperrors.WriteError(w, r, mapResolveError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenantContext(r.Context(), tc)))
		})
	}
}

func mapResolveError(err error) error {
	switch {
	case errors.Is(err, registry.ErrInvalidIdentifier):
		return httperrors.ErrTenantIDInvalid.WithCause(err)
	case repository.IsNotFound(err):
		return httperrors.ErrTenantNotFound.WithCause(err)
	case errors.Is(err, registry.ErrInactive):
		return httperrors.ErrTenantInactive.WithCause(err)
	case errors.Is(err, registry.ErrStorageUnavailable):
		return httperrors.ErrTenantStorageUnavailable.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
