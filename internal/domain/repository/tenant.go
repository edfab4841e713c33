package repository

import (
	"context"
	"time"
)

// Tenant representa un arrendatario del directorio (aislamiento lógico).
// NamespaceID es el schema de Postgres que contiene sus datos; se deriva
// del nombre al crear el tenant y nunca cambia.
type Tenant struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	NamespaceID  string            `json:"namespaceId"`
	ContactEmail string            `json:"contactEmail,omitempty"`
	IsActive     bool              `json:"isActive"`
	PlanType     string            `json:"planType,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedBy    string            `json:"createdBy,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// TenantStore es el acceso durable al directorio de tenants.
// Las lecturas deben ser seguras bajo alta concurrencia; las escrituras
// son raras y se serializan en la capa de registry.
type TenantStore interface {
	// GetByName busca por nombre exacto. ErrNotFound si no existe.
	GetByName(ctx context.Context, name string) (*Tenant, error)
	// GetByID busca por id. ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Tenant, error)
	// Insert inserta la fila del registro. ErrConflict si name o
	// namespace ya existen.
	Insert(ctx context.Context, t *Tenant) error
	// SetActive marca el tenant activo/inactivo.
	SetActive(ctx context.Context, id string, active bool) error
	// Delete elimina la fila del registro. ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error
	// List devuelve todos los tenants (uso administrativo).
	List(ctx context.Context) ([]Tenant, error)
}

// SchemaManager administra los namespaces de storage (schemas Postgres).
type SchemaManager interface {
	// CreateNamespace crea el schema y aplica el DDL base del namespace.
	CreateNamespace(ctx context.Context, namespaceID string) error
	// DropNamespace elimina el schema y todos sus datos (CASCADE).
	DropNamespace(ctx context.Context, namespaceID string) error
	// NamespaceExists verifica la existencia del schema.
	NamespaceExists(ctx context.Context, namespaceID string) (bool, error)
}
