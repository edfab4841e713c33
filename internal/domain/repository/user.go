package repository

import (
	"context"
	"time"
)

// User es la cuenta de un actor dentro del namespace de un tenant.
// Role es uno de "user" | "manager" | "admin".
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserInput datos mínimos para alta de usuario.
type CreateUserInput struct {
	Email        string
	FullName     string
	Role         string
	PasswordHash string
}

// UpdateUserInput campos modificables del perfil.
type UpdateUserInput struct {
	FullName *string
	Role     *string
}

// UserRepository es el handle de usuarios de un namespace.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, in CreateUserInput) (*User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*User, error)
	List(ctx context.Context) ([]User, error)
}
