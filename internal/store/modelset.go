// Package store define el ModelSet: el conjunto fijo y tipado de handles
// de acceso a datos de un namespace. Se construye una vez por namespace
// (ver internal/infra/modelcache) y nunca se muta después de publicado.
package store

import (
	"context"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
)

// ProbeFunc es el liveness probe barato contra el namespace. Detecta
// drift entre el registro y el storage real (schema borrado por fuera de
// la aplicación). El caller le pone su propio timeout, más corto que el
// timeout general de storage.
type ProbeFunc func(ctx context.Context) error

// ModelSet agrupa los handles de datos de un namespace. Inmutable después
// de construido; sólo el cache de modelos lo posee.
type ModelSet struct {
	namespaceID string
	tenantID    string
	employees   repository.EmployeeRepository
	users       repository.UserRepository
	probe       ProbeFunc
}

// NewModelSet arma un ModelSet completo. Todos los handles deben venir
// inicializados: nunca se publica un set parcial.
func NewModelSet(namespaceID, tenantID string, employees repository.EmployeeRepository, users repository.UserRepository, probe ProbeFunc) *ModelSet {
	return &ModelSet{
		namespaceID: namespaceID,
		tenantID:    tenantID,
		employees:   employees,
		users:       users,
		probe:       probe,
	}
}

func (m *ModelSet) NamespaceID() string { return m.namespaceID }
func (m *ModelSet) TenantID() string    { return m.tenantID }

// Employees devuelve el handle de empleados del namespace.
func (m *ModelSet) Employees() repository.EmployeeRepository { return m.employees }

// Users devuelve el handle de usuarios del namespace.
func (m *ModelSet) Users() repository.UserRepository { return m.users }

// Probe ejecuta el liveness probe del namespace.
func (m *ModelSet) Probe(ctx context.Context) error {
	if m.probe == nil {
		return nil
	}
	return m.probe(ctx)
}
