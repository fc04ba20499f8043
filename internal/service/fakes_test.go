package service

import (
	"fmt"
	"sync"
	"time"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

// memStore is a single-lock in-memory backend for the service tests. Holding
// one mutex across every composite transition mirrors the all-or-nothing
// transactions of the SQL stores, including the compare-and-set conflicts.
type memStore struct {
	mu sync.Mutex

	slots    map[int]*db.Slot
	requests map[int]*db.Request
	sessions map[int]*db.Session
	vehicles map[int]*db.Vehicle
	rates    []db.Rate
	contacts map[int][2]string

	nextRequestID int
	nextSessionID int
}

func newMemStore() *memStore {
	return &memStore{
		slots:         make(map[int]*db.Slot),
		requests:      make(map[int]*db.Request),
		sessions:      make(map[int]*db.Session),
		vehicles:      make(map[int]*db.Vehicle),
		contacts:      make(map[int][2]string),
		nextRequestID: 1,
		nextSessionID: 1,
	}
}

func (m *memStore) addSlot(id int, class, vehicleType, status string) *db.Slot {
	m.slots[id] = &db.Slot{
		ID:          id,
		SlotNumber:  fmt.Sprintf("A-%d", id),
		BlockID:     1,
		Class:       class,
		VehicleType: vehicleType,
		Status:      status,
		IsActive:    true,
	}
	return m.slots[id]
}

func (m *memStore) addVehicle(id int, vehicleType string, ownerID int) *db.Vehicle {
	m.vehicles[id] = &db.Vehicle{
		ID:           id,
		LicensePlate: fmt.Sprintf("PLATE-%d", id),
		VehicleType:  vehicleType,
		OwnerID:      ownerID,
	}
	m.contacts[id] = [2]string{fmt.Sprintf("owner%d@example.com", ownerID), "+100000000"}
	return m.vehicles[id]
}

func (m *memStore) addRate(class, vehicleType string, hourly int) {
	m.rates = append(m.rates, db.Rate{
		ID: len(m.rates) + 1, Class: class, VehicleType: vehicleType,
		HourlyRate: hourly, IsActive: true,
	})
}

func (m *memStore) slot(id int) db.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.slots[id]
}

func (m *memStore) request(id int) db.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.requests[id]
}

func (m *memStore) session(id int) db.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

// reserve, occupy, release and unreserve replicate the conditional UPDATEs of
// the SQL registry. Callers hold m.mu.
func (m *memStore) reserve(id int) error {
	s, ok := m.slots[id]
	if !ok || s.Status != db.SlotAvailable || !s.IsActive {
		return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is not available"}
	}
	s.Status = db.SlotReserved
	return nil
}

func (m *memStore) unreserve(id int) error {
	s, ok := m.slots[id]
	if !ok || s.Status != db.SlotReserved {
		return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is not reserved"}
	}
	s.Status = db.SlotAvailable
	return nil
}

func (m *memStore) occupy(id, vehicleID, sessionID int) error {
	s, ok := m.slots[id]
	if !ok || !s.IsActive || (s.Status != db.SlotAvailable && s.Status != db.SlotReserved) {
		return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is occupied or in maintenance"}
	}
	now := time.Now()
	s.Status = db.SlotOccupied
	s.CurrentVehicleID = &vehicleID
	s.CurrentSessionID = &sessionID
	s.LastOccupied = &now
	return nil
}

func (m *memStore) release(id int) error {
	s, ok := m.slots[id]
	if !ok || s.Status != db.SlotOccupied {
		return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is not occupied"}
	}
	s.Status = db.SlotAvailable
	s.CurrentVehicleID = nil
	s.CurrentSessionID = nil
	return nil
}

func (m *memStore) insertSession(vehicleID, slotID, issuerID int, token string) (*db.Session, error) {
	for _, existing := range m.sessions {
		if existing.Token == token {
			return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session token already exists"}
		}
	}
	s := &db.Session{
		ID:          m.nextSessionID,
		VehicleID:   vehicleID,
		SlotID:      slotID,
		IssuedBy:    issuerID,
		Token:       token,
		BookingTime: time.Now(),
		Status:      db.SessionActive,
	}
	m.nextSessionID++
	m.sessions[s.ID] = s
	return s, nil
}

type memSlots struct{ s *memStore }

func (f memSlots) GetByID(id int) (*db.Slot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	slot, ok := f.s.slots[id]
	if !ok {
		return nil, apperrors.NotFoundError{Resource: "parking slot"}
	}
	copied := *slot
	return &copied, nil
}

func (f memSlots) List(filter repository.SlotFilter) ([]db.Slot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []db.Slot
	for _, slot := range f.s.slots {
		if filter.Status != "" && slot.Status != filter.Status {
			continue
		}
		out = append(out, *slot)
	}
	return out, nil
}

func (f memSlots) Reserve(id int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.reserve(id)
}

func (f memSlots) Unreserve(id int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.unreserve(id)
}

func (f memSlots) Occupy(id, vehicleID, sessionID int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.occupy(id, vehicleID, sessionID)
}

func (f memSlots) Release(id int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.release(id)
}

func (f memSlots) SetMaintenance(id int, on bool) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	slot, ok := f.s.slots[id]
	if !ok {
		return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is reserved or occupied"}
	}
	if on {
		if slot.Status != db.SlotAvailable {
			return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is reserved or occupied"}
		}
		slot.Status = db.SlotMaintenance
		return nil
	}
	if slot.Status != db.SlotMaintenance {
		return apperrors.ConflictError{Resource: "parking slot", Msg: "slot is not in maintenance"}
	}
	slot.Status = db.SlotAvailable
	return nil
}

type memRequests struct{ s *memStore }

func (f memRequests) Create(vehicleID, slotID, requesterID int) (*db.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.requests {
		if existing.SlotID == slotID && existing.Status == db.RequestPending {
			return nil, apperrors.ConflictError{Resource: "parking request", Msg: "slot already has a pending request"}
		}
	}
	if err := f.s.reserve(slotID); err != nil {
		return nil, err
	}
	req := &db.Request{
		ID:          f.s.nextRequestID,
		VehicleID:   vehicleID,
		SlotID:      slotID,
		RequestedBy: requesterID,
		Status:      db.RequestPending,
		RequestTime: time.Now(),
	}
	f.s.nextRequestID++
	f.s.requests[req.ID] = req
	copied := *req
	return &copied, nil
}

func (f memRequests) GetByID(id int) (*db.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	req, ok := f.s.requests[id]
	if !ok {
		return nil, apperrors.NotFoundError{Resource: "parking request"}
	}
	copied := *req
	return &copied, nil
}

func (f memRequests) List(filter repository.RequestFilter) ([]db.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []db.Request
	for _, req := range f.s.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (f memRequests) Approve(requestID, adminID int, token string) (*db.Request, *db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	req, ok := f.s.requests[requestID]
	if !ok || req.Status != db.RequestPending {
		return nil, nil, apperrors.ConflictError{Resource: "parking request", Msg: "request is not pending"}
	}
	session, err := f.s.insertSession(req.VehicleID, req.SlotID, adminID, token)
	if err != nil {
		return nil, nil, err
	}
	if err := f.s.occupy(req.SlotID, req.VehicleID, session.ID); err != nil {
		delete(f.s.sessions, session.ID)
		return nil, nil, err
	}
	now := time.Now()
	req.Status = db.RequestApproved
	req.ResponseTime = &now
	req.RespondedBy = &adminID
	req.SessionID = &session.ID
	reqCopy, sessCopy := *req, *session
	return &reqCopy, &sessCopy, nil
}

func (f memRequests) Reject(requestID, adminID int, reason string) (*db.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	req, ok := f.s.requests[requestID]
	if !ok || req.Status != db.RequestPending {
		return nil, apperrors.ConflictError{Resource: "parking request", Msg: "request is not pending"}
	}
	if err := f.s.unreserve(req.SlotID); err != nil {
		return nil, err
	}
	now := time.Now()
	req.Status = db.RequestRejected
	req.ResponseTime = &now
	req.RespondedBy = &adminID
	req.Reason = reason
	copied := *req
	return &copied, nil
}

type memSessions struct{ s *memStore }

func (f memSessions) CreateDirect(vehicleID, slotID, issuerID int, token string) (*db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	slot, ok := f.s.slots[slotID]
	if !ok || slot.Status != db.SlotAvailable || !slot.IsActive {
		return nil, apperrors.ConflictError{Resource: "parking slot", Msg: "slot is not available"}
	}
	session, err := f.s.insertSession(vehicleID, slotID, issuerID, token)
	if err != nil {
		return nil, err
	}
	if err := f.s.occupy(slotID, vehicleID, session.ID); err != nil {
		delete(f.s.sessions, session.ID)
		return nil, err
	}
	copied := *session
	return &copied, nil
}

func (f memSessions) GetByID(id int) (*db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	session, ok := f.s.sessions[id]
	if !ok {
		return nil, apperrors.NotFoundError{Resource: "parking session"}
	}
	copied := *session
	return &copied, nil
}

func (f memSessions) GetByToken(token string) (*db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, session := range f.s.sessions {
		if session.Token == token {
			copied := *session
			return &copied, nil
		}
	}
	return nil, apperrors.NotFoundError{Resource: "parking session"}
}

func (f memSessions) List(filter repository.SessionFilter) ([]db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []db.Session
	for _, session := range f.s.sessions {
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		out = append(out, *session)
	}
	return out, nil
}

func (f memSessions) SetQRCodeURL(id int, url string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if session, ok := f.s.sessions[id]; ok {
		session.QRCodeURL = url
	}
	return nil
}

func (f memSessions) RecordEntry(id int, entry time.Time) (*db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	session, ok := f.s.sessions[id]
	if !ok || session.Status != db.SessionActive || session.EntryTime != nil {
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "entry already recorded or session not active"}
	}
	session.EntryTime = &entry
	copied := *session
	return &copied, nil
}

func (f memSessions) Complete(id int, exit time.Time, amount int) (*db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	session, ok := f.s.sessions[id]
	if !ok || session.Status != db.SessionActive {
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session is not active"}
	}
	if err := f.s.release(session.SlotID); err != nil {
		return nil, err
	}
	session.Status = db.SessionCompleted
	session.ExitTime = &exit
	session.Amount = &amount
	copied := *session
	return &copied, nil
}

func (f memSessions) Cancel(id int) (*db.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	session, ok := f.s.sessions[id]
	if !ok || session.Status != db.SessionActive {
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session is not active"}
	}
	if err := f.s.release(session.SlotID); err != nil {
		return nil, err
	}
	session.Status = db.SessionCancelled
	copied := *session
	return &copied, nil
}

type memVehicles struct{ s *memStore }

func (f memVehicles) Create(vehicle *db.Vehicle) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	vehicle.ID = len(f.s.vehicles) + 1
	copied := *vehicle
	f.s.vehicles[vehicle.ID] = &copied
	return nil
}

func (f memVehicles) GetByID(id int) (*db.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	vehicle, ok := f.s.vehicles[id]
	if !ok {
		return nil, apperrors.NotFoundError{Resource: "vehicle"}
	}
	copied := *vehicle
	return &copied, nil
}

func (f memVehicles) ListByOwner(ownerID int) ([]db.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []db.Vehicle
	for _, vehicle := range f.s.vehicles {
		if vehicle.OwnerID == ownerID {
			out = append(out, *vehicle)
		}
	}
	return out, nil
}

func (f memVehicles) OwnerContact(vehicleID int) (string, string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	contact, ok := f.s.contacts[vehicleID]
	if !ok {
		return "", "", apperrors.NotFoundError{Resource: "vehicle owner"}
	}
	return contact[0], contact[1], nil
}

type memRates struct{ s *memStore }

func (f memRates) ActiveRate(class, vehicleType string) (*db.Rate, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.rates {
		rate := f.s.rates[i]
		if rate.Class == class && rate.VehicleType == vehicleType && rate.IsActive {
			return &rate, nil
		}
	}
	return nil, apperrors.DependencyError{
		Dependency: "rate catalog",
		Msg:        fmt.Sprintf("no active rate for %s %s", class, vehicleType),
	}
}

func (f memRates) Create(rate *db.Rate) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	rate.ID = len(f.s.rates) + 1
	f.s.rates = append(f.s.rates, *rate)
	return nil
}

func (f memRates) Update(rate *db.Rate) error { return nil }

func (f memRates) GetByID(id int) (*db.Rate, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.rates {
		if f.s.rates[i].ID == id {
			rate := f.s.rates[i]
			return &rate, nil
		}
	}
	return nil, apperrors.NotFoundError{Resource: "rate"}
}

func (f memRates) List() ([]db.Rate, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return append([]db.Rate(nil), f.s.rates...), nil
}

func (f memRates) Deactivate(id, adminID int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.rates {
		if f.s.rates[i].ID == id {
			f.s.rates[i].IsActive = false
			return nil
		}
	}
	return apperrors.NotFoundError{Resource: "rate"}
}

// recordingNotifier captures notifications synchronously so tests can assert
// on them without racing the fire-and-forget goroutines of the real sender.
type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *recordingNotifier) NotifyUser(email, phone, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.subjects...)
}

type staticRenderer struct{}

func (staticRenderer) Render(sessionID int, token string) (string, error) {
	return fmt.Sprintf("/uploads/qrcodes/qr-%d.png", sessionID), nil
}
