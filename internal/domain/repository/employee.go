package repository

import (
	"context"
	"time"
)

// Employee es un registro de negocio representativo del namespace.
// El set de campos completo es responsabilidad de los handlers CRUD
// (colaboradores externos); aquí solo lo mínimo para la plomería.
type Employee struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	OwnerID   string    `json:"ownerId,omitempty"` // user dueño del registro
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateEmployeeInput datos de alta.
type CreateEmployeeInput struct {
	Email    string
	FullName string
	OwnerID  string
}

// EmployeeRepository es el handle de empleados de un namespace.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*Employee, error)
	Create(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Delete(ctx context.Context, id string) error
}
