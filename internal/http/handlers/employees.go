package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/http/middlewares"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
)

// EmployeesHandler maneja /v1/employees: ruta de negocio representativa
// que corre contra el ModelSet del tenant del request.
type EmployeesHandler struct{}

func NewEmployeesHandler() *EmployeesHandler { return &EmployeesHandler{} }

type createEmployeeRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// List maneja GET /v1/employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	items, err := tc.Models.Employees().List(ctx)
	if err != nil {
		logger.From(ctx).Error("list employees failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, items)
}

// Get maneja GET /v1/employees/{employeeId}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	emp, err := tc.Models.Employees().GetByID(ctx, chi.URLParam(r, "employeeId"))
	if err != nil {
		if repository.IsNotFound(err) {
			httperrors.WriteError(w, r, httperrors.ErrNotFound)
			return
		}
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, emp)
}

// Create maneja POST /v1/employees. El registro queda owned por el
// usuario autenticado que lo crea.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	claims := middlewares.GetClaims(ctx)
	if tc == nil || claims == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	var req createEmployeeRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || strings.TrimSpace(req.FullName) == "" {
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithDetail("email y fullName son requeridos"))
		return
	}

	emp, err := tc.Models.Employees().Create(ctx, repository.CreateEmployeeInput{
		Email:    req.Email,
		FullName: req.FullName,
		OwnerID:  claims.UserID,
	})
	if err != nil {
		if repository.IsConflict(err) {
			httperrors.WriteError(w, r, httperrors.ErrConflict)
			return
		}
		logger.From(ctx).Error("create employee failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, emp)
}

// Delete maneja DELETE /v1/employees/{employeeId}.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	if err := tc.Models.Employees().Delete(ctx, chi.URLParam(r, "employeeId")); err != nil {
		if repository.IsNotFound(err) {
			httperrors.WriteError(w, r, httperrors.ErrNotFound)
			return
		}
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
