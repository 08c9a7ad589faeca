package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"social-go/internal/auth"
	"social-go/internal/middleware"
	"social-go/internal/presence"
	"social-go/internal/services"
)

// AuthHandler wraps registration, login and logout.
type AuthHandler struct {
	authService services.AuthService
	blacklist   auth.TokenBlacklist
	presence    *presence.Service
	jwtKey      string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthService, blacklist auth.TokenBlacklist, presenceService *presence.Service, jwtKey string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		blacklist:   blacklist,
		presence:    presenceService,
		jwtKey:      jwtKey,
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Nickname, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("Error registering user %s: %v", req.Username, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, user)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account record.
type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login handles POST /auth/login. Username also accepts the account email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	token, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrUserNotFound) {
			// One message for both cases; don't reveal which accounts exist.
			writeJSONError(w, "invalid username or password", http.StatusUnauthorized)
			return
		}
		log.Printf("Error logging in user %s: %v", req.Username, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// LogoutHandler handles POST /api/v1/auth/logout: revokes the presented
// token by JTI and forces the user invisible.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}

	headerParts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(headerParts) != 2 {
		writeJSONError(w, "invalid authorization header format", http.StatusUnauthorized)
		return
	}
	// The middleware already validated this token; re-parse only to recover
	// the JTI and expiry for the blacklist entry.
	claims, err := auth.ValidateToken(r.Context(), headerParts[1], h.jwtKey, nil)
	if err != nil {
		writeJSONError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := h.blacklist.Add(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Printf("Error blacklisting token for user %s: %v", username, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.presence.Logout(r.Context(), username); err != nil {
		// Token is already revoked; a failed presence write only delays the
		// status change until the gateway notices the disconnect.
		log.Printf("Error applying logout presence intent for user %s: %v", username, err)
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
