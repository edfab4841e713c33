package middlewares

import (
	"net/http"

	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/token"
)

// WithAuth verifica el access token y liga las claims. Corre después de
// WithTenant: además de firma y vigencia, exige que el token pertenezca
// al tenant ya resuelto del request.
func WithAuth(tokens *token.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := GetTenantContext(r.Context())
			if tc == nil {
				// Orden de middlewares roto; nunca debería pasar en runtime.
				httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
				return
			}

			raw, err := token.ExtractFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				httperrors.WriteError(w, r, httperrors.ErrTokenMissing.WithCause(err))
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				httperrors.WriteError(w, r, mapTokenError(err))
				return
			}

			if err := tokens.CheckTenant(claims, tc.TenantID); err != nil {
				httperrors.WriteError(w, r, httperrors.ErrTokenTenantMismatch.WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func mapTokenError(err error) error {
	switch token.KindOf(err) {
	case token.KindMissing:
		return httperrors.ErrTokenMissing.WithCause(err)
	case token.KindExpired:
		return httperrors.ErrTokenExpired.WithCause(err)
	case token.KindNotYetValid:
		return httperrors.ErrTokenNotActive.WithCause(err)
	case token.KindTenantMismatch:
		return httperrors.ErrTokenTenantMismatch.WithCause(err)
	default:
		return httperrors.ErrTokenInvalid.WithCause(err)
	}
}
