// Package handlers implementa los endpoints HTTP. Todos asumen el
// pipeline de middlewares ya corrido: el tenant (y donde corresponda la
// identidad) viene ligado al contexto.
package handlers

import (
	"net/http"
	"strings"
	"time"

	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/http/middlewares"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/internal/security/password"
	"github.com/dropDatabas3/workplane/internal/token"
)

// AuthHandler maneja /v1/auth.
type AuthHandler struct {
	tokens *token.Service
}

func NewAuthHandler(tokens *token.Service) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login maneja POST /v1/auth/login. Autentica contra los usuarios del
// tenant resuelto y emite un token ligado a ese tenant.
//
// Email inexistente y password incorrecta responden lo mismo: no se
// revela cuál de los dos falló.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("Login"))

	tc := middlewares.GetTenantContext(ctx)
	if tc == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError)
		return
	}

	var req loginRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithDetail("email y password son requeridos"))
		return
	}

	user, err := tc.Models.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		log.Debug("login: user lookup failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInvalidCredentials)
		return
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		httperrors.WriteError(w, r, httperrors.ErrInvalidCredentials)
		return
	}

	signed, exp, err := h.tokens.Issue(token.IssueInput{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   tc.TenantID,
		TenantName: tc.TenantName,
	})
	if err != nil {
		log.Error("login: issue failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	log.Info("login ok", logger.UserID(user.ID))
	httperrors.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
	})
}
