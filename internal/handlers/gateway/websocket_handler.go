package gateway

import (
	"context"
	"log"
	"net/http"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/presence"
	ws "social-go/internal/websocket"
)

// WebSocketHandler upgrades authenticated clients and ties the connection
// lifecycle to presence intents.
type WebSocketHandler struct {
	hub       *ws.Hub
	presence  *presence.Service
	blacklist auth.TokenBlacklist
	cfg       config.Config
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, presenceService *presence.Service, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		presence:  presenceService,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

// ServeWS handles an incoming websocket request. Anonymous connections are
// rejected: the hub keys clients by username and delivery targeting depends
// on an authenticated identity.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		log.Printf("WebSocket connection rejected: invalid token: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	username := claims.Username

	onClose := func() {
		// The request context is gone by the time the socket drops.
		if err := h.presence.Disconnect(context.Background(), username); err != nil {
			log.Printf("Error applying disconnect intent for user %s: %v", username, err)
		}
	}

	ws.ServeWs(h.hub, username, w, r, h.cfg.WebSocket, onClose)

	if err := h.presence.Connect(r.Context(), username); err != nil {
		log.Printf("Error applying connect intent for user %s: %v", username, err)
	}
}
