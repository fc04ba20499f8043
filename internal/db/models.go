package db

import "time"

// Slot statuses. "maintenance" is an administrative state, only entered and
// left through the admin endpoint, never by the allocation workflows.
const (
	SlotAvailable   = "available"
	SlotReserved    = "reserved"
	SlotOccupied    = "occupied"
	SlotMaintenance = "maintenance"
)

// Request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestExpired  = "expired"
)

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Slot classes, in rate order.
const (
	ClassVVIP   = "VVIP"
	ClassVIP    = "VIP"
	ClassNormal = "NORMAL"
)

// Vehicle types.
const (
	VehicleCar   = "car"
	VehicleTruck = "truck"
	VehicleBike  = "bike"
)

type Block struct {
	ID          int
	Name        string
	Description string
	Floor       int
	TotalSlots  int
	IsActive    bool
	CreatedBy   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Slot struct {
	ID               int
	SlotNumber       string
	BlockID          int
	Floor            int
	Class            string
	VehicleType      string
	Status           string
	IsActive         bool
	CurrentVehicleID *int
	CurrentSessionID *int
	LastOccupied     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Vehicle struct {
	ID           int
	LicensePlate string
	VehicleType  string
	Make         string
	Model        string
	Color        string
	OwnerID      int
	CreatedAt    time.Time
}

type Request struct {
	ID           int
	VehicleID    int
	SlotID       int
	RequestedBy  int
	Status       string
	RequestTime  time.Time
	ResponseTime *time.Time
	RespondedBy  *int
	Reason       string
	SessionID    *int
}

type Session struct {
	ID          int
	VehicleID   int
	SlotID      int
	IssuedBy    int
	Token       string
	QRCodeURL   string
	BookingTime time.Time
	EntryTime   *time.Time
	ExitTime    *time.Time
	Status      string
	// Amount is set exactly when Status is "completed".
	Amount *int
}

type Rate struct {
	ID          int
	Class       string
	VehicleType string
	HourlyRate  int
	Description string
	IsActive    bool
	UpdatedBy   int
	UpdatedAt   time.Time
}

type User struct {
	ID           int
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
