package authz

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Actor es el usuario autenticado que pide el acceso. Un actor nil
// significa "sin autenticación": toda policy lo rechaza.
type Actor struct {
	ID   string
	Role Role
}

// Reasons de una Decision. Estables: el transporte los mapea a status y
// las métricas los cuentan.
const (
	ReasonGranted                 = "granted"
	ReasonAuthRequired            = "auth_required"
	ReasonInsufficientRole        = "insufficient_role"
	ReasonInsufficientPermissions = "insufficient_permissions"
	ReasonOwnershipUnknown        = "ownership_unknown"
)

// Decision es el veredicto de una policy.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true, Reason: ReasonGranted} }
func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Policy evalúa un request para un actor. No escribe la respuesta; eso
// es del transporte.
type Policy interface {
	Evaluate(actor *Actor, r *http.Request) Decision
}

// PolicyFunc adapta una función a Policy.
type PolicyFunc func(actor *Actor, r *http.Request) Decision

func (f PolicyFunc) Evaluate(actor *Actor, r *http.Request) Decision { return f(actor, r) }

// RequireMinimumRole exige el rol min o superior.
func RequireMinimumRole(min Role) Policy {
	return PolicyFunc(func(actor *Actor, _ *http.Request) Decision {
		if actor == nil {
			return deny(ReasonAuthRequired)
		}
		if !actor.Role.AtLeast(min) {
			return deny(ReasonInsufficientRole)
		}
		return allow()
	})
}

// RequireExactRole exige pertenecer al conjunto exacto de roles, sin
// jerarquía: un admin NO pasa por un check de "manager exacto".
func RequireExactRole(roles ...Role) Policy {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return PolicyFunc(func(actor *Actor, _ *http.Request) Decision {
		if actor == nil {
			return deny(ReasonAuthRequired)
		}
		if _, ok := set[actor.Role]; !ok {
			return deny(ReasonInsufficientPermissions)
		}
		return allow()
	})
}

// OwnerExtractor localiza el owner ID candidato de un request. Devuelve
// ("", false) si su fuente no está presente.
type OwnerExtractor func(r *http.Request) (string, bool)

// FromPathParam extrae el owner del parámetro de ruta name.
func FromPathParam(name string) OwnerExtractor {
	return func(r *http.Request) (string, bool) {
		v := chi.URLParam(r, name)
		return v, v != ""
	}
}

// FromBodyField extrae el owner del campo field del body JSON. El body
// se restaura para que el handler pueda volver a leerlo.
func FromBodyField(field string) OwnerExtractor {
	return func(r *http.Request) (string, bool) {
		if r.Body == nil {
			return "", false
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil || len(raw) == 0 {
			return "", false
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return "", false
		}
		var v string
		if err := json.Unmarshal(m[field], &v); err != nil || v == "" {
			return "", false
		}
		return v, true
	}
}

// FromQueryParam extrae el owner del query param name.
func FromQueryParam(name string) OwnerExtractor {
	return func(r *http.Request) (string, bool) {
		v := r.URL.Query().Get(name)
		return v, v != ""
	}
}

// RequireOwnershipOrRole permite el acceso si el actor es dueño del
// recurso, o si alcanza bypass en la jerarquía. Los extractors se
// consultan en orden y gana el primero que encuentra un candidato.
//
// Si ningún extractor determina el owner, se niega con
// ReasonOwnershipUnknown: la duda nunca concede acceso.
func RequireOwnershipOrRole(bypass Role, extractors ...OwnerExtractor) Policy {
	return PolicyFunc(func(actor *Actor, r *http.Request) Decision {
		if actor == nil {
			return deny(ReasonAuthRequired)
		}
		if actor.Role.AtLeast(bypass) {
			return allow()
		}
		for _, ex := range extractors {
			if owner, ok := ex(r); ok {
				if owner == actor.ID {
					return allow()
				}
				return deny(ReasonInsufficientPermissions)
			}
		}
		return deny(ReasonOwnershipUnknown)
	})
}
