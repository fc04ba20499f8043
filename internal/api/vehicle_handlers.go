package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkwise/internal/auth"
	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

type VehicleHandler struct {
	Vehicles repository.VehicleStore
}

func NewVehicleHandler(vehicles repository.VehicleStore) *VehicleHandler {
	return &VehicleHandler{Vehicles: vehicles}
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var payload CreateVehiclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if payload.LicensePlate == "" {
		writeError(w, apperrors.ValidationError{Msg: "license plate is required"})
		return
	}
	switch payload.VehicleType {
	case db.VehicleCar, db.VehicleTruck, db.VehicleBike:
	default:
		writeError(w, apperrors.ValidationError{Msg: "vehicle_type must be car, truck or bike"})
		return
	}

	vehicle := &db.Vehicle{
		LicensePlate: payload.LicensePlate,
		VehicleType:  payload.VehicleType,
		Make:         payload.Make,
		Model:        payload.Model,
		Color:        payload.Color,
		OwnerID:      identity.UserID,
	}
	if err := h.Vehicles.Create(vehicle); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    vehicleView(vehicle),
	})
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Vehicles.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    vehicleView(vehicle),
	})
}

// Mine lists the caller's vehicles.
func (h *VehicleHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	vehicles, err := h.Vehicles.ListByOwner(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]VehicleView, 0, len(vehicles))
	for i := range vehicles {
		views = append(views, vehicleView(&vehicles[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(views),
		"data":    views,
	})
}
