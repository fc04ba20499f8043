package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkwise/internal/auth"
	"parkwise/internal/repository"
	"parkwise/internal/service"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: svc}
}

// Create books a session directly, without a reservation request. This path
// bypasses the request/approval audit trail and is admin-only.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var payload CreateSessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	session, err := h.Service.Create(payload.VehicleID, payload.SlotID, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    sessionView(session),
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	session, err := h.Service.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sessionView(session),
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.SessionFilter{Status: r.URL.Query().Get("status")}
	if vehicleID := r.URL.Query().Get("vehicle"); vehicleID != "" {
		filter.VehicleID, _ = strconv.Atoi(vehicleID)
	}
	if issuer := r.URL.Query().Get("issuer"); issuer != "" {
		filter.IssuedBy, _ = strconv.Atoi(issuer)
	}

	sessions, err := h.Service.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(sessions),
		"data":    sessionViews(sessions),
	})
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	session, err := h.Service.Complete(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sessionView(session),
	})
}

func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	session, err := h.Service.Cancel(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Parking session cancelled",
		"data":    sessionView(session),
	})
}

// Scan is the gate-side entry point: it resolves the token and infers entry
// or exit from the session's recorded timestamps.
func (h *SessionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var payload ScanPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result, err := h.Service.Scan(payload.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": result.Action,
		"data":    sessionView(result.Session),
	})
}
