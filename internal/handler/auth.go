package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"labtrade-api/internal/model"
	"labtrade-api/internal/service"
	"labtrade-api/pkg/apierror"
	"labtrade-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /api/v1/auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		response.Error(w, apierror.ServiceUnavailable("session tokens are not enabled"))
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.UserID == "" {
		response.Error(w, apierror.BadRequest("user_id is required"))
		return
	}

	now := time.Now().UTC()
	session := model.SessionData{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(service.TokenTTL),
	}

	token, err := h.tokenService.GenerateToken(r.Context(), session)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		response.Error(w, apierror.ServiceUnavailable("session tokens are not enabled"))
		return
	}

	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		response.Error(w, apierror.ServiceUnavailable("session tokens are not enabled"))
		return
	}

	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}
