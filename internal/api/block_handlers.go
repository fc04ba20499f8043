package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkwise/internal/auth"
	"parkwise/internal/service"
)

type BlockHandler struct {
	Service *service.BlockService
}

func NewBlockHandler(svc *service.BlockService) *BlockHandler {
	return &BlockHandler{Service: svc}
}

func (h *BlockHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var payload CreateBlockPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	block, err := h.Service.Create(service.BlockSpec{
		Name:        payload.Name,
		Description: payload.Description,
		Floor:       payload.Floor,
		TotalSlots:  payload.TotalSlots,
		CarSlots:    payload.CarSlots,
		TruckSlots:  payload.TruckSlots,
		BikeSlots:   payload.BikeSlots,
	}, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    blockView(block),
	})
}

func (h *BlockHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	block, err := h.Service.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    blockView(block),
	})
}

func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.Service.List()
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]BlockView, 0, len(blocks))
	for i := range blocks {
		views = append(views, blockView(&blocks[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(views),
		"data":    views,
	})
}
