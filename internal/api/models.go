package api

import (
	"time"

	"parkwise/internal/db"
)

// Requests

type CreateRequestPayload struct {
	VehicleID int `json:"vehicle_id"`
	SlotID    int `json:"slot_id"`
}

type RejectRequestPayload struct {
	Reason string `json:"reason"`
}

type CreateSessionPayload struct {
	VehicleID int `json:"vehicle_id"`
	SlotID    int `json:"slot_id"`
}

type ScanPayload struct {
	Token string `json:"token"`
}

type CreateBlockPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Floor       int    `json:"floor"`
	TotalSlots  int    `json:"total_slots"`
	CarSlots    int    `json:"car_slots"`
	TruckSlots  int    `json:"truck_slots"`
	BikeSlots   int    `json:"bike_slots"`
}

type CreateVehiclePayload struct {
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

type RatePayload struct {
	Class       string `json:"class"`
	VehicleType string `json:"vehicle_type"`
	HourlyRate  int    `json:"hourly_rate"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type MaintenancePayload struct {
	Maintenance bool `json:"maintenance"`
}

type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Views

type RequestView struct {
	ID           int        `json:"id"`
	VehicleID    int        `json:"vehicle_id"`
	SlotID       int        `json:"slot_id"`
	RequestedBy  int        `json:"requested_by"`
	Status       string     `json:"status"`
	RequestTime  time.Time  `json:"request_time"`
	ResponseTime *time.Time `json:"response_time,omitempty"`
	RespondedBy  *int       `json:"responded_by,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	SessionID    *int       `json:"session_id,omitempty"`
}

func requestView(r *db.Request) RequestView {
	return RequestView{
		ID:           r.ID,
		VehicleID:    r.VehicleID,
		SlotID:       r.SlotID,
		RequestedBy:  r.RequestedBy,
		Status:       r.Status,
		RequestTime:  r.RequestTime,
		ResponseTime: r.ResponseTime,
		RespondedBy:  r.RespondedBy,
		Reason:       r.Reason,
		SessionID:    r.SessionID,
	}
}

func requestViews(rs []db.Request) []RequestView {
	views := make([]RequestView, 0, len(rs))
	for i := range rs {
		views = append(views, requestView(&rs[i]))
	}
	return views
}

type SessionView struct {
	ID          int        `json:"id"`
	VehicleID   int        `json:"vehicle_id"`
	SlotID      int        `json:"slot_id"`
	IssuedBy    int        `json:"issued_by"`
	Token       string     `json:"token"`
	QRCodeURL   string     `json:"qr_code_url,omitempty"`
	BookingTime time.Time  `json:"booking_time"`
	EntryTime   *time.Time `json:"entry_time,omitempty"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
	Status      string     `json:"status"`
	Amount      *int       `json:"amount,omitempty"`
}

func sessionView(s *db.Session) SessionView {
	return SessionView{
		ID:          s.ID,
		VehicleID:   s.VehicleID,
		SlotID:      s.SlotID,
		IssuedBy:    s.IssuedBy,
		Token:       s.Token,
		QRCodeURL:   s.QRCodeURL,
		BookingTime: s.BookingTime,
		EntryTime:   s.EntryTime,
		ExitTime:    s.ExitTime,
		Status:      s.Status,
		Amount:      s.Amount,
	}
}

func sessionViews(ss []db.Session) []SessionView {
	views := make([]SessionView, 0, len(ss))
	for i := range ss {
		views = append(views, sessionView(&ss[i]))
	}
	return views
}

type SlotView struct {
	ID               int        `json:"id"`
	SlotNumber       string     `json:"slot_number"`
	BlockID          int        `json:"block_id"`
	Floor            int        `json:"floor"`
	Class            string     `json:"class"`
	VehicleType      string     `json:"vehicle_type"`
	Status           string     `json:"status"`
	CurrentVehicleID *int       `json:"current_vehicle_id,omitempty"`
	CurrentSessionID *int       `json:"current_session_id,omitempty"`
	LastOccupied     *time.Time `json:"last_occupied,omitempty"`
}

func slotView(s *db.Slot) SlotView {
	return SlotView{
		ID:               s.ID,
		SlotNumber:       s.SlotNumber,
		BlockID:          s.BlockID,
		Floor:            s.Floor,
		Class:            s.Class,
		VehicleType:      s.VehicleType,
		Status:           s.Status,
		CurrentVehicleID: s.CurrentVehicleID,
		CurrentSessionID: s.CurrentSessionID,
		LastOccupied:     s.LastOccupied,
	}
}

func slotViews(ss []db.Slot) []SlotView {
	views := make([]SlotView, 0, len(ss))
	for i := range ss {
		views = append(views, slotView(&ss[i]))
	}
	return views
}

type BlockView struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Floor       int       `json:"floor"`
	TotalSlots  int       `json:"total_slots"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func blockView(b *db.Block) BlockView {
	return BlockView{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Floor:       b.Floor,
		TotalSlots:  b.TotalSlots,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
	}
}

type VehicleView struct {
	ID           int       `json:"id"`
	LicensePlate string    `json:"license_plate"`
	VehicleType  string    `json:"vehicle_type"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	Color        string    `json:"color,omitempty"`
	OwnerID      int       `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func vehicleView(v *db.Vehicle) VehicleView {
	return VehicleView{
		ID:           v.ID,
		LicensePlate: v.LicensePlate,
		VehicleType:  v.VehicleType,
		Make:         v.Make,
		Model:        v.Model,
		Color:        v.Color,
		OwnerID:      v.OwnerID,
		CreatedAt:    v.CreatedAt,
	}
}

type RateView struct {
	ID          int       `json:"id"`
	Class       string    `json:"class"`
	VehicleType string    `json:"vehicle_type"`
	HourlyRate  int       `json:"hourly_rate"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	UpdatedBy   int       `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func rateView(r *db.Rate) RateView {
	return RateView{
		ID:          r.ID,
		Class:       r.Class,
		VehicleType: r.VehicleType,
		HourlyRate:  r.HourlyRate,
		Description: r.Description,
		IsActive:    r.IsActive,
		UpdatedBy:   r.UpdatedBy,
		UpdatedAt:   r.UpdatedAt,
	}
}
