package service

import (
	"fmt"
	"log"
	"time"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

// Scan outcomes.
const (
	ScanEntryRecorded = "entry recorded"
	ScanExitRecorded  = "exit recorded"
)

// ScanResult reports what a token scan did.
type ScanResult struct {
	Action  string
	Session *db.Session
}

// SessionService manages the billed occupancy lifecycle and the scan
// protocol that advances it. Sessions are created either through request
// approval (see RequestService) or directly here; the direct path bypasses
// the reservation/approval audit trail and exists for walk-ins issued by an
// admin at the gate.
type SessionService struct {
	Sessions repository.SessionStore
	Slots    repository.SlotRegistry
	Vehicles repository.VehicleStore
	Rates    repository.RateCatalog
	Notifier Notifier
	Renderer TokenRenderer

	now func() time.Time
}

func NewSessionService(sessions repository.SessionStore, slots repository.SlotRegistry,
	vehicles repository.VehicleStore, rates repository.RateCatalog,
	notifier Notifier, renderer TokenRenderer) *SessionService {
	return &SessionService{
		Sessions: sessions,
		Slots:    slots,
		Vehicles: vehicles,
		Rates:    rates,
		Notifier: notifier,
		Renderer: renderer,
		now:      time.Now,
	}
}

// Create books a session directly against an available slot, without a prior
// request. The session starts active with no entry or exit time.
func (s *SessionService) Create(vehicleID, slotID, issuerID int) (*db.Session, error) {
	vehicle, err := s.Vehicles.GetByID(vehicleID)
	if err != nil {
		return nil, asValidation(err, "vehicle not found")
	}
	slot, err := s.Slots.GetByID(slotID)
	if err != nil {
		return nil, asValidation(err, "parking slot not found")
	}
	if !slot.IsActive {
		return nil, apperrors.ValidationError{Msg: "parking slot is deactivated"}
	}
	if slot.Status != db.SlotAvailable {
		return nil, apperrors.ConflictError{Resource: "parking slot", Msg: "slot is not available"}
	}
	if slot.VehicleType != vehicle.VehicleType {
		return nil, apperrors.ValidationError{
			Msg: fmt.Sprintf("slot %s does not accept vehicle type %s", slot.SlotNumber, vehicle.VehicleType),
		}
	}

	session, err := s.Sessions.CreateDirect(vehicleID, slotID, issuerID, NewSessionToken())
	if err != nil {
		return nil, err
	}
	log.Printf("Parking session %d created for vehicle %d at slot %d", session.ID, vehicleID, slotID)

	s.decorate(session)
	s.notifyOwner(vehicleID, "Parking session created",
		fmt.Sprintf("Your parking session at slot %s is active. Show your QR code when entering and leaving.", slot.SlotNumber))
	return session, nil
}

// Complete closes an active session explicitly: exit time is now, the fee is
// computed against the slot's rate, and the slot is released. A session with
// no recorded entry is billed from its booking time, never from "now".
func (s *SessionService) Complete(sessionID int) (*db.Session, error) {
	session, err := s.Sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != db.SessionActive {
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session is not active"}
	}

	exit := s.now()
	amount, err := s.fee(session, exit)
	if err != nil {
		return nil, err
	}

	completed, err := s.Sessions.Complete(session.ID, exit, amount)
	if err != nil {
		return nil, err
	}
	log.Printf("Parking session %d completed, amount %d, slot %d released",
		completed.ID, amount, completed.SlotID)

	s.notifyCompletion(completed)
	return completed, nil
}

// Cancel voids an active session without charging and releases the slot.
func (s *SessionService) Cancel(sessionID int) (*db.Session, error) {
	session, err := s.Sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != db.SessionActive {
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session is not active"}
	}

	cancelled, err := s.Sessions.Cancel(session.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("Parking session %d cancelled, slot %d released", cancelled.ID, cancelled.SlotID)
	return cancelled, nil
}

// Scan resolves a token and advances the session, inferring entry or exit
// from what has been recorded so far: the first scan stamps the entry time,
// the second stamps the exit, bills and releases the slot, and any further
// scan reports the already-completed state without mutating anything.
func (s *SessionService) Scan(token string) (*ScanResult, error) {
	session, err := s.Sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}

	switch {
	case session.Status == db.SessionCompleted:
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session has already been completed"}
	case session.Status != db.SessionActive:
		return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session is not active"}
	}

	if session.EntryTime == nil {
		updated, err := s.Sessions.RecordEntry(session.ID, s.now())
		if err != nil {
			return nil, err
		}
		log.Printf("Entry recorded for parking session %d", updated.ID)
		return &ScanResult{Action: ScanEntryRecorded, Session: updated}, nil
	}

	if session.ExitTime == nil {
		exit := s.now()
		amount, err := s.fee(session, exit)
		if err != nil {
			return nil, err
		}
		completed, err := s.Sessions.Complete(session.ID, exit, amount)
		if err != nil {
			return nil, err
		}
		log.Printf("Exit recorded for parking session %d, amount %d", completed.ID, amount)

		s.notifyCompletion(completed)
		return &ScanResult{Action: ScanExitRecorded, Session: completed}, nil
	}

	// Active with both timestamps should not persist; treat it like a
	// completed session rather than billing again.
	return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session has already been completed"}
}

func (s *SessionService) GetByID(id int) (*db.Session, error) {
	return s.Sessions.GetByID(id)
}

func (s *SessionService) List(filter repository.SessionFilter) ([]db.Session, error) {
	return s.Sessions.List(filter)
}

// fee resolves the applicable rate and computes the bill. Entry falls back
// to the booking time when no entry scan happened.
func (s *SessionService) fee(session *db.Session, exit time.Time) (int, error) {
	slot, err := s.Slots.GetByID(session.SlotID)
	if err != nil {
		return 0, err
	}
	vehicle, err := s.Vehicles.GetByID(session.VehicleID)
	if err != nil {
		return 0, err
	}
	rate, err := s.Rates.ActiveRate(slot.Class, vehicle.VehicleType)
	if err != nil {
		return 0, err
	}

	entry := session.BookingTime
	if session.EntryTime != nil {
		entry = *session.EntryTime
	}
	return ComputeFee(rate, entry, exit)
}

func (s *SessionService) decorate(session *db.Session) {
	if s.Renderer == nil {
		return
	}
	url, err := s.Renderer.Render(session.ID, session.Token)
	if err != nil {
		log.Printf("ALERT: QR render failed for session %d: %v", session.ID, err)
		return
	}
	session.QRCodeURL = url
	if err := s.Sessions.SetQRCodeURL(session.ID, url); err != nil {
		log.Printf("ALERT: could not store QR URL for session %d: %v", session.ID, err)
	}
}

func (s *SessionService) notifyCompletion(session *db.Session) {
	amount := 0
	if session.Amount != nil {
		amount = *session.Amount
	}
	s.notifyOwner(session.VehicleID, "Parking session completed",
		fmt.Sprintf("Your parking session has been completed. Total amount: %d. Thank you for parking with us.", amount))
}

func (s *SessionService) notifyOwner(vehicleID int, subject, body string) {
	if s.Notifier == nil {
		return
	}
	email, phone, err := s.Vehicles.OwnerContact(vehicleID)
	if err != nil {
		log.Printf("ALERT: owner contact lookup failed for vehicle %d: %v", vehicleID, err)
		return
	}
	s.Notifier.NotifyUser(email, phone, subject, body)
}
