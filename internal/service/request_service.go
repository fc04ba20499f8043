package service

import (
	"fmt"
	"log"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

const defaultRejectReason = "No reason provided"

// RequestService runs the reservation request workflow: create reserves a
// slot, approval converts the request into an active session, rejection and
// expiry free the slot again.
type RequestService struct {
	Requests repository.RequestStore
	Slots    repository.SlotRegistry
	Sessions repository.SessionStore
	Vehicles repository.VehicleStore
	Notifier Notifier
	Renderer TokenRenderer
}

func NewRequestService(requests repository.RequestStore, slots repository.SlotRegistry,
	sessions repository.SessionStore, vehicles repository.VehicleStore,
	notifier Notifier, renderer TokenRenderer) *RequestService {
	return &RequestService{
		Requests: requests,
		Slots:    slots,
		Sessions: sessions,
		Vehicles: vehicles,
		Notifier: notifier,
		Renderer: renderer,
	}
}

// Create validates the vehicle and slot, then reserves the slot and persists
// a pending request as one all-or-nothing step. A slot that is not available,
// or already has a pending request, is a Conflict and leaves nothing mutated.
func (s *RequestService) Create(vehicleID, slotID, requesterID int) (*db.Request, error) {
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
	if slot.VehicleType != vehicle.VehicleType {
		return nil, apperrors.ValidationError{
			Msg: fmt.Sprintf("slot %s does not accept vehicle type %s", slot.SlotNumber, vehicle.VehicleType),
		}
	}

	request, err := s.Requests.Create(vehicleID, slotID, requesterID)
	if err != nil {
		return nil, err
	}
	log.Printf("Parking request %d created for vehicle %d at slot %d, slot reserved",
		request.ID, vehicleID, slotID)
	return request, nil
}

// Approve converts a pending request into an active session and occupies the
// slot. The store runs the whole transition in one transaction, so two
// concurrent approvals resolve to exactly one session; the loser sees a
// Conflict and causes no mutation.
func (s *RequestService) Approve(requestID, adminID int) (*db.Request, *db.Session, error) {
	if _, err := s.Requests.GetByID(requestID); err != nil {
		return nil, nil, err
	}

	request, session, err := s.Requests.Approve(requestID, adminID, NewSessionToken())
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Parking request %d approved, session %d active on slot %d",
		request.ID, session.ID, session.SlotID)

	s.decorateSession(session)
	s.notifyOwner(session.VehicleID, "Parking request approved",
		fmt.Sprintf("Your parking request has been approved. Show your QR code when entering and leaving. Session reference: %d.", session.ID))
	return request, session, nil
}

// Reject turns a pending request down and returns the slot to available.
func (s *RequestService) Reject(requestID, adminID int, reason string) (*db.Request, error) {
	if _, err := s.Requests.GetByID(requestID); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = defaultRejectReason
	}

	request, err := s.Requests.Reject(requestID, adminID, reason)
	if err != nil {
		return nil, err
	}
	log.Printf("Parking request %d rejected, slot %d available again", request.ID, request.SlotID)

	s.notifyOwner(request.VehicleID, "Parking request rejected",
		fmt.Sprintf("Your parking request has been rejected. Reason: %s", reason))
	return request, nil
}

func (s *RequestService) GetByID(id int) (*db.Request, error) {
	return s.Requests.GetByID(id)
}

func (s *RequestService) List(filter repository.RequestFilter) ([]db.Request, error) {
	return s.Requests.List(filter)
}

// decorateSession renders the QR reference for a freshly created session.
// Best-effort: the session is already committed, a render failure only logs.
func (s *RequestService) decorateSession(session *db.Session) {
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

func (s *RequestService) notifyOwner(vehicleID int, subject, body string) {
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

// asValidation downgrades a missing referenced entity to a ValidationError;
// other errors pass through unchanged.
func asValidation(err error, msg string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.ValidationError{Msg: msg, Err: err}
	}
	return err
}
