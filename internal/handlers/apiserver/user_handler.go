package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"social-go/internal/middleware"
	"social-go/internal/models"
	"social-go/internal/presence"
	"social-go/internal/services"
)

// UserHandler wraps the user-directory HTTP surface: profile, settings,
// presence and the block list.
type UserHandler struct {
	userService services.UserService
	presence    *presence.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserService, presenceService *presence.Service) *UserHandler {
	return &UserHandler{userService: userService, presence: presenceService}
}

// GetMyProfileHandler handles GET /api/v1/users/me.
func (h *UserHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error fetching profile for user %d: %v", userID, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// UpdateMyProfileRequest is the body of PUT /api/v1/users/me.
type UpdateMyProfileRequest struct {
	Nickname              string `json:"nickname,omitempty"`
	AvatarURL             string `json:"avatarUrl,omitempty"`
	Bio                   string `json:"bio,omitempty"`
	ProfileVisibility     string `json:"profileVisibility,omitempty"`
	QuietHoursEnabled     *bool  `json:"quietHoursEnabled,omitempty"`
	QuietHoursStart       string `json:"quietHoursStart,omitempty"`
	QuietHoursEnd         string `json:"quietHoursEnd,omitempty"`
	TimezoneOffsetMinutes *int   `json:"timezoneOffsetMinutes,omitempty"`
}

// UpdateMyProfileHandler handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}

	var req UpdateMyProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.userService.UpdateUserProfile(r.Context(), userID, services.UpdateProfileInput{
		Nickname:              req.Nickname,
		AvatarURL:             req.AvatarURL,
		Bio:                   req.Bio,
		ProfileVisibility:     req.ProfileVisibility,
		QuietHoursEnabled:     req.QuietHoursEnabled,
		QuietHoursStart:       req.QuietHoursStart,
		QuietHoursEnd:         req.QuietHoursEnd,
		TimezoneOffsetMinutes: req.TimezoneOffsetMinutes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidVisibility), errors.Is(err, services.ErrInvalidQuietHours):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("Error updating profile for user %d: %v", userID, err)
			writeJSONError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// SetStatusRequest is the body of PUT /api/v1/users/me/status.
type SetStatusRequest struct {
	Status    string `json:"status"`
	MuteScope string `json:"muteScope,omitempty"`
}

// SetStatusHandler handles PUT /api/v1/users/me/status: an explicit presence
// intent submitted on the user's behalf.
func (h *UserHandler) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	err := h.presence.SetStatus(r.Context(), username, models.UserStatus(req.Status), models.MuteScope(req.MuteScope))
	if err != nil {
		switch {
		case errors.Is(err, presence.ErrInvalidStatus):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, presence.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("Error setting status for user %s: %v", username, err)
			writeJSONError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": req.Status})
}

// SearchUsersHandler handles GET /api/v1/users/search?query=...
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < 2 {
		writeJSONError(w, "search query too short (minimum 2 characters)", http.StatusBadRequest)
		return
	}

	users, err := h.userService.SearchUsers(r.Context(), query, userID)
	if err != nil {
		log.Printf("Error searching users: %v", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, users)
}

// BlockUserHandler handles POST /api/v1/users/{username}/block.
func (h *UserHandler) BlockUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}
	target := mux.Vars(r)["username"]

	if err := h.userService.BlockUser(r.Context(), userID, target); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrSelfBlock):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("Error blocking user %s: %v", target, err)
			writeJSONError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"blocked": target})
}

// UnblockUserHandler handles DELETE /api/v1/users/{username}/block.
func (h *UserHandler) UnblockUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}
	target := mux.Vars(r)["username"]

	if err := h.userService.UnblockUser(r.Context(), userID, target); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error unblocking user %s: %v", target, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"unblocked": target})
}

// ListBlockedUsersHandler handles GET /api/v1/users/me/blocked.
func (h *UserHandler) ListBlockedUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing user identity in context", http.StatusUnauthorized)
		return
	}

	blocked, err := h.userService.ListBlockedUsers(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing blocked users for %d: %v", userID, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, blocked)
}
