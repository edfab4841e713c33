package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/workplane/internal/authz"
	"github.com/dropDatabas3/workplane/internal/domain/repository"
	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/http/middlewares"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/internal/security/password"
)

// UsersHandler maneja /v1/users. Las rutas por {userId} pasan por la
// policy de ownership: un user sólo toca su propio perfil, manager o
// superior pasa por jerarquía.
type UsersHandler struct {
	hasher password.Params
}

func NewUsersHandler(hasher password.Params) *UsersHandler {
	return &UsersHandler{hasher: hasher}
}

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
}

// Create maneja POST /v1/users (admin).
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	var req createUserRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.Role == "" {
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithDetail("email, password y role son requeridos"))
		return
	}

	hash, err := password.Hash(h.hasher, req.Password)
	if err != nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	user, err := tc.Models.Users().Create(ctx, repository.CreateUserInput{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: hash,
	})
	if err != nil {
		if repository.IsConflict(err) {
			httperrors.WriteError(w, r, httperrors.ErrConflict)
			return
		}
		logger.From(ctx).Error("create user failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, user)
}

// List maneja GET /v1/users (manager+).
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	users, err := tc.Models.Users().List(ctx)
	if err != nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, users)
}

// Get maneja GET /v1/users/{userId} (owner o manager+ por policy).
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	user, err := tc.Models.Users().GetByID(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		if repository.IsNotFound(err) {
			httperrors.WriteError(w, r, httperrors.ErrNotFound)
			return
		}
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, user)
}

// Update maneja PUT /v1/users/{userId} (owner o manager+ por policy).
// El cambio de rol es sólo para admin, aunque la policy de la ruta deje
// pasar al dueño.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	var req updateUserRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}

	if req.Role != nil {
		actor := middlewares.ActorFrom(ctx)
		if actor == nil || !actor.Role.AtLeast(authz.RoleAdmin) {
			httperrors.WriteError(w, r, httperrors.ErrInsufficientPermissions.WithDetail("sólo admin puede cambiar roles"))
			return
		}
	}

	user, err := tc.Models.Users().Update(ctx, chi.URLParam(r, "userId"), repository.UpdateUserInput{
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			httperrors.WriteError(w, r, httperrors.ErrNotFound)
			return
		}
		logger.From(ctx).Error("update user failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, user)
}
