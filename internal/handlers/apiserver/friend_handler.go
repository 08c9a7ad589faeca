package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"social-go/internal/models"
	"social-go/internal/services"
)

// FriendHandler exposes the social-graph service over HTTP.
type FriendHandler struct {
	friendService services.FriendService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(fs services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: fs}
}

// writeFriendError maps service errors onto the HTTP taxonomy: not-found
// 404, invalid-operation 400, conflict 409, anything else a generic 500.
func writeFriendError(w http.ResponseWriter, err error, logContext string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrRequestNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrSelfRequest), errors.Is(err, services.ErrUsersBlocked), errors.Is(err, services.ErrInvalidStatus):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrRequestExists), errors.Is(err, services.ErrRequestNotPending):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		// Internal details stay in the log, not in the response body.
		log.Printf("%s: %v", logContext, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

// CreateFriendRequestPayload is the body of POST /friend/request.
type CreateFriendRequestPayload struct {
	Requester string `json:"requester"`
	Recipient string `json:"recipient"`
}

// CreateFriendRequestHandler handles POST /friend/request.
func (h *FriendHandler) CreateFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateFriendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.Requester == "" || payload.Recipient == "" {
		writeJSONError(w, "requester and recipient are required", http.StatusBadRequest)
		return
	}

	request, err := h.friendService.CreateFriendRequest(r.Context(), payload.Requester, payload.Recipient)
	if err != nil {
		writeFriendError(w, err, "Error creating friend request")
		return
	}
	writeJSONResponse(w, http.StatusCreated, request)
}

// UpdateFriendRequestStatusPayload is the body of PUT /friend/request/status.
type UpdateFriendRequestStatusPayload struct {
	RequestID uint   `json:"requestId"`
	Status    string `json:"status"`
}

// UpdateFriendRequestStatusHandler handles PUT /friend/request/status.
func (h *FriendHandler) UpdateFriendRequestStatusHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateFriendRequestStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.RequestID == 0 {
		writeJSONError(w, "requestId is required", http.StatusBadRequest)
		return
	}

	request, err := h.friendService.UpdateFriendRequestStatus(r.Context(), payload.RequestID, models.FriendRequestStatus(payload.Status))
	if err != nil {
		writeFriendError(w, err, "Error updating friend request status")
		return
	}
	writeJSONResponse(w, http.StatusOK, request)
}

// DeleteFriendRequestHandler handles DELETE /friend/request/{requestID}.
// Covers cancel, unfriend and clearing a rejection.
func (h *FriendHandler) DeleteFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	requestIDStr := mux.Vars(r)["requestID"]
	requestID, err := strconv.ParseUint(requestIDStr, 10, 32)
	if err != nil {
		writeJSONError(w, "invalid friend request ID", http.StatusBadRequest)
		return
	}

	request, err := h.friendService.DeleteFriendRequest(r.Context(), uint(requestID))
	if err != nil {
		writeFriendError(w, err, "Error deleting friend request")
		return
	}
	writeJSONResponse(w, http.StatusOK, request)
}

// ListFriendRequestsHandler handles GET /friend/requests/{username}.
func (h *FriendHandler) ListFriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	requests, err := h.friendService.GetFriendRequestsByUsername(r.Context(), username)
	if err != nil {
		writeFriendError(w, err, "Error listing friend requests")
		return
	}
	if requests == nil {
		requests = []*models.FriendRequestWithUsers{}
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// ListPendingRequestsHandler handles GET /friend/requests/pending/{username}.
func (h *FriendHandler) ListPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	requests, err := h.friendService.GetPendingFriendRequests(r.Context(), username)
	if err != nil {
		writeFriendError(w, err, "Error listing pending friend requests")
		return
	}
	if requests == nil {
		requests = []*models.FriendRequestWithUsers{}
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// ListFriendsHandler handles GET /friend/friends/{username}.
func (h *FriendHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	friends, err := h.friendService.GetFriendsByUsername(r.Context(), username)
	if err != nil {
		writeFriendError(w, err, "Error listing friends")
		return
	}
	if friends == nil {
		friends = []models.FriendConnection{}
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// GetMutualFriendsHandler handles GET /friend/mutual/{username1}/{username2}.
func (h *FriendHandler) GetMutualFriendsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	mutual, err := h.friendService.GetMutualFriends(r.Context(), vars["username1"], vars["username2"])
	if err != nil {
		writeFriendError(w, err, "Error computing mutual friends")
		return
	}
	if mutual == nil {
		mutual = []*models.UserBasicInfo{}
	}
	writeJSONResponse(w, http.StatusOK, mutual)
}
