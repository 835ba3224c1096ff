package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/realtime"
	"sos-backend/pkg/jwt"
	"sos-backend/pkg/utils"
)

// WebSocketHandler attaches authenticated connections to the realtime hub.
type WebSocketHandler struct {
	hub     *realtime.Hub
	jwtUtil *jwt.JWTUtil
}

func NewWebSocketHandler(hub *realtime.Hub, jwtUtil *jwt.JWTUtil) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, jwtUtil: jwtUtil}
}

// HandleWebSocket authenticates from ?token= or the Authorization header and
// registers the connection under the caller's recipient id.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication token required", nil)
		return
	}

	id, err := h.jwtUtil.Identity(token)
	if err != nil {
		slog.Info("websocket connection rejected", "error", err)
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authentication token", err)
		return
	}

	conn, err := h.hub.Upgrade(c.Writer, c.Request)
	if err != nil {
		// Upgrade has already answered the client.
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client, err := h.hub.Register(id.RecipientID(), conn)
	if err != nil {
		slog.Warn("websocket registration failed", "recipient", id.RecipientID(), "error", err)
		return
	}
	slog.Info("websocket connected", "recipient", client.RecipientID, "client_id", client.ID)
}

// Stats reports open connections.
func (h *WebSocketHandler) Stats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Realtime stats", h.hub.Stats())
}
