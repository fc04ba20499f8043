package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkwise/internal/repository"
)

type SlotHandler struct {
	Slots repository.SlotRegistry
}

func NewSlotHandler(slots repository.SlotRegistry) *SlotHandler {
	return &SlotHandler{Slots: slots}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.SlotFilter{
		Status:      r.URL.Query().Get("status"),
		Class:       r.URL.Query().Get("class"),
		VehicleType: r.URL.Query().Get("vehicle_type"),
	}
	if blockID := r.URL.Query().Get("block"); blockID != "" {
		filter.BlockID, _ = strconv.Atoi(blockID)
	}

	slots, err := h.Slots.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(slots),
		"data":    slotViews(slots),
	})
}

func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	slot, err := h.Slots.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    slotView(slot),
	})
}

// SetMaintenance flips the administrative maintenance state on a slot.
func (h *SlotHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var payload MaintenancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.Slots.SetMaintenance(id, payload.Maintenance); err != nil {
		writeError(w, err)
		return
	}
	slot, err := h.Slots.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    slotView(slot),
	})
}
