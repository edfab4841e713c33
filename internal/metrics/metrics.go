// Prometheus metrics del pipeline multi-tenant. Viven en un paquete
// standalone para evitar ciclos de import entre el cache de modelos y
// las capas HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	modelCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workplane_modelcache_hits_total",
		Help: "Model cache hits.",
	})
	modelCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workplane_modelcache_misses_total",
		Help: "Model cache misses (a load was attempted).",
	})
	modelCacheLoadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workplane_modelcache_load_failures_total",
		Help: "Model set constructions that failed.",
	})
	modelCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workplane_modelcache_entries",
		Help: "Live model cache entries.",
	})

	tenantResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workplane_tenant_resolutions_total",
		Help: "Tenant resolutions by outcome.",
	}, []string{"outcome"})

	authRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workplane_auth_rejections_total",
		Help: "Authentication/authorization rejections by reason code.",
	}, []string{"reason"})

	tokenVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workplane_token_verifications_total",
		Help: "Token verifications by result.",
	}, []string{"result"})
)

// Register registra los collectors en el registry dado (o el default si
// es nil). Idempotente vía AlreadyRegisteredError.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		modelCacheHits, modelCacheMisses, modelCacheLoadFailures, modelCacheEntries,
		tenantResolutions, authRejections, tokenVerifications,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}

func ModelCacheHit() { modelCacheHits.Inc() }

func ModelCacheMiss() { modelCacheMisses.Inc() }

func ModelCacheLoadFailure() { modelCacheLoadFailures.Inc() }

// ModelCacheEntries fija la cantidad de entradas vivas del cache.
func ModelCacheEntries(n int) { modelCacheEntries.Set(float64(n)) }

// TenantResolution registra el resultado de una resolución ("ok",
// "not_found", "inactive", "invalid", "storage_unavailable").
func TenantResolution(outcome string) { tenantResolutions.WithLabelValues(outcome).Inc() }

// AuthRejection registra un rechazo con su código estable (TOKEN_EXPIRED,
// INSUFFICIENT_ROLE, ...).
func AuthRejection(reason string) { authRejections.WithLabelValues(reason).Inc() }

// TokenVerification registra el resultado de una verificación ("ok",
// "expired", "invalid", "not_yet_valid", "tenant_mismatch").
func TokenVerification(result string) { tokenVerifications.WithLabelValues(result).Inc() }
