package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/services"
	"sos-backend/pkg/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a reporter and returns a token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.SignupUser(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Signup successful", response)
}

// Login handles user and volunteer authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Login successful", response)
}

// RefreshToken exchanges a token close to expiry for a new one.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required", nil)
		return
	}

	fresh, err := h.authService.RefreshToken(token)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Token refreshed", gin.H{"token": fresh})
}

// Profile returns the signed-in reporter's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	u, err := h.authService.Profile(c.Request.Context(), caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Profile retrieved", u)
}
