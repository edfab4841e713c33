// Package router define las rutas HTTP del servicio y el orden de la
// cadena de middlewares. El orden es el contrato: tenant primero, auth
// después, policy al final. Un request nunca llega a un handler de
// negocio salteándose un estadio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/workplane/internal/authz"
	"github.com/dropDatabas3/workplane/internal/http/handlers"
	mw "github.com/dropDatabas3/workplane/internal/http/middlewares"
	"github.com/dropDatabas3/workplane/internal/rate"
	"github.com/dropDatabas3/workplane/internal/registry"
	"github.com/dropDatabas3/workplane/internal/token"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Resolver     *registry.Resolver
	Tokens       *token.Service
	TenantHeader string

	Auth      *handlers.AuthHandler
	Tenants   *handlers.TenantsHandler
	Employees *handlers.EmployeesHandler
	Users     *handlers.UsersHandler
	Health    *handlers.HealthHandler

	// LoginLimiter aplica sólo al login; nil desactiva el rate limit.
	LoginLimiter rate.Limiter
}

// New arma el router completo.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Superficie operativa: sin tenant, sin auth.
	r.Get("/healthz", d.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	tenant := mw.WithTenant(d.Resolver, d.TenantHeader)
	auth := mw.WithAuth(d.Tokens)

	// Login: tenant resuelto + rate limit, sin token (lo produce).
	r.Group(func(r chi.Router) {
		r.Use(tenant)
		r.Use(mw.WithRateLimit(d.LoginLimiter))
		r.Post("/v1/auth/login", d.Auth.Login)
	})

	// Rutas de negocio: cadena completa tenant -> auth -> policy.
	r.Group(func(r chi.Router) {
		r.Use(tenant)
		r.Use(auth)

		r.Route("/v1/employees", func(r chi.Router) {
			r.With(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleUser))).
				Get("/", d.Employees.List)
			r.With(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleUser))).
				Get("/{employeeId}", d.Employees.Get)
			r.With(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleManager))).
				Post("/", d.Employees.Create)
			r.With(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleManager))).
				Delete("/{employeeId}", d.Employees.Delete)
		})

		r.Route("/v1/users", func(r chi.Router) {
			r.With(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleAdmin))).
				Post("/", d.Users.Create)
			r.With(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleManager))).
				Get("/", d.Users.List)

			// Owner o manager+; el owner sale del path param.
			ownerOrManager := mw.RequirePolicy(authz.RequireOwnershipOrRole(
				authz.RoleManager,
				authz.FromPathParam("userId"),
				authz.FromBodyField("userId"),
				authz.FromQueryParam("userId"),
			))
			r.With(ownerOrManager).Get("/{userId}", d.Users.Get)
			r.With(ownerOrManager).Put("/{userId}", d.Users.Update)
		})

		// Superficie administrativa del directorio de tenants.
		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(mw.RequirePolicy(authz.RequireMinimumRole(authz.RoleAdmin)))

			r.Post("/tenants", d.Tenants.Create)
			r.Get("/tenants", d.Tenants.List)
			r.Post("/tenants/{tenantId}/deactivate", d.Tenants.Deactivate)
			r.Post("/tenants/{tenantId}/activate", d.Tenants.Activate)
			r.Delete("/tenants/{tenantId}", d.Tenants.Delete)
			r.Post("/tenants/{tenantId}/cache/reload", d.Tenants.CacheReload)
			r.Get("/cache/stats", d.Tenants.CacheStats)
		})
	})

	// Capa global, de afuera hacia adentro: el request id existe antes de
	// que el recover o el logger lo necesiten.
	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithRecover(),
		mw.WithLogging(),
	)
}
