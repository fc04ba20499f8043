package service

import (
	"sync"
	"testing"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

func newRequestFixture() (*memStore, *RequestService, *recordingNotifier) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := NewRequestService(
		memRequests{store}, memSlots{store}, memSessions{store}, memVehicles{store},
		notifier, staticRenderer{},
	)
	return store, svc, notifier
}

func TestCreateRequestReservesSlot(t *testing.T) {
	store, svc, _ := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleCar, db.SlotAvailable)
	store.addVehicle(1, db.VehicleCar, 7)

	req, err := svc.Create(1, 1, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if req.Status != db.RequestPending {
		t.Errorf("request status = %q, want %q", req.Status, db.RequestPending)
	}
	if got := store.slot(1).Status; got != db.SlotReserved {
		t.Errorf("slot status = %q, want %q", got, db.SlotReserved)
	}
}

func TestCreateRequestSlotAlreadyReserved(t *testing.T) {
	store, svc, _ := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleCar, db.SlotAvailable)
	store.addVehicle(1, db.VehicleCar, 7)
	store.addVehicle(2, db.VehicleCar, 8)

	if _, err := svc.Create(1, 1, 7); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	_, err := svc.Create(2, 1, 8)
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected ConflictError for second request, got %v", err)
	}
	if got := store.slot(1).Status; got != db.SlotReserved {
		t.Errorf("losing request mutated slot status to %q", got)
	}
	requests, err := svc.List(repository.RequestFilter{Status: db.RequestPending})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(requests) != 1 {
		t.Errorf("pending request count = %d, want 1", len(requests))
	}
}

func TestCreateRequestUnknownVehicleIsValidation(t *testing.T) {
	store, svc, _ := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleCar, db.SlotAvailable)

	_, err := svc.Create(99, 1, 7)
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected ValidationError for unknown vehicle, got %v", err)
	}
}

func TestCreateRequestVehicleTypeMismatch(t *testing.T) {
	store, svc, _ := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleBike, db.SlotAvailable)
	store.addVehicle(1, db.VehicleTruck, 7)

	_, err := svc.Create(1, 1, 7)
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected ValidationError for type mismatch, got %v", err)
	}
	if got := store.slot(1).Status; got != db.SlotAvailable {
		t.Errorf("failed request mutated slot status to %q", got)
	}
}

func TestApproveCreatesActiveSession(t *testing.T) {
	store, svc, notifier := newRequestFixture()
	store.addSlot(1, db.ClassVIP, db.VehicleCar, db.SlotAvailable)
	store.addVehicle(1, db.VehicleCar, 7)

	req, err := svc.Create(1, 1, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	approved, session, err := svc.Approve(req.ID, 42)
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if approved.Status != db.RequestApproved {
		t.Errorf("request status = %q, want %q", approved.Status, db.RequestApproved)
	}
	if session.Status != db.SessionActive {
		t.Errorf("session status = %q, want %q", session.Status, db.SessionActive)
	}
	if session.Token == "" {
		t.Error("approved session has no token")
	}
	if session.EntryTime != nil {
		t.Error("fresh session should have no entry time")
	}
	if approved.SessionID == nil || *approved.SessionID != session.ID {
		t.Errorf("request not linked to session %d", session.ID)
	}

	slot := store.slot(1)
	if slot.Status != db.SlotOccupied {
		t.Errorf("slot status = %q, want %q", slot.Status, db.SlotOccupied)
	}
	if slot.CurrentSessionID == nil || *slot.CurrentSessionID != session.ID {
		t.Error("slot does not point at the new session")
	}
	if got := store.session(session.ID).QRCodeURL; got == "" {
		t.Error("QR code URL not stored on session")
	}
	if subjects := notifier.sent(); len(subjects) != 1 || subjects[0] != "Parking request approved" {
		t.Errorf("notifications = %v, want one approval notice", subjects)
	}
}

func TestApproveUnknownRequestIsNotFound(t *testing.T) {
	_, svc, _ := newRequestFixture()

	_, _, err := svc.Approve(99, 42)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestApproveNonPendingRequestIsConflict(t *testing.T) {
	store, svc, _ := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleCar, db.SlotAvailable)
	store.addVehicle(1, db.VehicleCar, 7)

	req, err := svc.Create(1, 1, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Reject(req.ID, 42, "full"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	_, _, err = svc.Approve(req.ID, 42)
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected ConflictError approving rejected request, got %v", err)
	}
}

func TestConcurrentApprovalsOneWinner(t *testing.T) {
	store, svc, _ := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleCar, db.SlotAvailable)
	store.addVehicle(1, db.VehicleCar, 7)

	req, err := svc.Create(1, 1, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Approve(req.ID, 100+i)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperrors.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected approval error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("got %d winners and %d conflicts, want exactly one of each", wins, conflicts)
	}

	sessions, err := memSessions{store}.List(repository.SessionFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("session count = %d, want 1", len(sessions))
	}
}

func TestRejectReturnsSlotToAvailable(t *testing.T) {
	store, svc, notifier := newRequestFixture()
	store.addSlot(1, db.ClassNormal, db.VehicleCar, db.SlotAvailable)
	store.addVehicle(1, db.VehicleCar, 7)

	req, err := svc.Create(1, 1, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	rejected, err := svc.Reject(req.ID, 42, "")
	if err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if rejected.Status != db.RequestRejected {
		t.Errorf("request status = %q, want %q", rejected.Status, db.RequestRejected)
	}
	if rejected.Reason != defaultRejectReason {
		t.Errorf("reason = %q, want default %q", rejected.Reason, defaultRejectReason)
	}
	if got := store.slot(1).Status; got != db.SlotAvailable {
		t.Errorf("slot status = %q, want %q", got, db.SlotAvailable)
	}
	if subjects := notifier.sent(); len(subjects) != 1 || subjects[0] != "Parking request rejected" {
		t.Errorf("notifications = %v, want one rejection notice", subjects)
	}
}
