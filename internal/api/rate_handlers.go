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

type RateHandler struct {
	Rates repository.RateCatalog
}

func NewRateHandler(rates repository.RateCatalog) *RateHandler {
	return &RateHandler{Rates: rates}
}

func validateRatePayload(payload *RatePayload) error {
	switch payload.Class {
	case db.ClassVVIP, db.ClassVIP, db.ClassNormal:
	default:
		return apperrors.ValidationError{Msg: "class must be VVIP, VIP or NORMAL"}
	}
	switch payload.VehicleType {
	case db.VehicleCar, db.VehicleTruck, db.VehicleBike:
	default:
		return apperrors.ValidationError{Msg: "vehicle_type must be car, truck or bike"}
	}
	if payload.HourlyRate < 0 {
		return apperrors.ValidationError{Msg: "hourly_rate cannot be negative"}
	}
	return nil
}

func (h *RateHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var payload RatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validateRatePayload(&payload); err != nil {
		writeError(w, err)
		return
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	rate := &db.Rate{
		Class:       payload.Class,
		VehicleType: payload.VehicleType,
		HourlyRate:  payload.HourlyRate,
		Description: payload.Description,
		IsActive:    active,
		UpdatedBy:   identity.UserID,
	}
	if err := h.Rates.Create(rate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    rateView(rate),
	})
}

func (h *RateHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	rate, err := h.Rates.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload RatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if payload.HourlyRate < 0 {
		writeError(w, apperrors.ValidationError{Msg: "hourly_rate cannot be negative"})
		return
	}

	if payload.HourlyRate != 0 {
		rate.HourlyRate = payload.HourlyRate
	}
	if payload.Description != "" {
		rate.Description = payload.Description
	}
	if payload.IsActive != nil {
		rate.IsActive = *payload.IsActive
	}
	rate.UpdatedBy = identity.UserID

	if err := h.Rates.Update(rate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rateView(rate),
	})
}

func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	rate, err := h.Rates.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rateView(rate),
	})
}

func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Rates.List()
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]RateView, 0, len(rates))
	for i := range rates {
		views = append(views, rateView(&rates[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(views),
		"data":    views,
	})
}

func (h *RateHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := h.Rates.Deactivate(id, identity.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rate deactivated"})
}
