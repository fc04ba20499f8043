package service

import (
	"fmt"
	"log"
	"strings"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

// BlockService provisions parking blocks. Creating a block lays out its
// slots immediately, as one explicit ordered operation: the first third of
// the numbering gets the VVIP class, the second third VIP, and the rest
// NORMAL.
type BlockService struct {
	Blocks repository.BlockStore
	Slots  repository.SlotRegistry
}

func NewBlockService(blocks repository.BlockStore, slots repository.SlotRegistry) *BlockService {
	return &BlockService{Blocks: blocks, Slots: slots}
}

// BlockSpec is the admin's provisioning input. The per-vehicle-type counts
// may sum to less than TotalSlots; the remainder defaults to car slots.
type BlockSpec struct {
	Name        string
	Description string
	Floor       int
	TotalSlots  int
	CarSlots    int
	TruckSlots  int
	BikeSlots   int
}

func (s *BlockService) Create(spec BlockSpec, adminID int) (*db.Block, error) {
	name := strings.ToUpper(strings.TrimSpace(spec.Name))
	if name == "" {
		return nil, apperrors.ValidationError{Msg: "block name is required"}
	}
	if spec.Floor < 0 {
		return nil, apperrors.ValidationError{Msg: "floor number cannot be negative"}
	}
	if spec.TotalSlots < 3 {
		return nil, apperrors.ValidationError{Msg: "block must have at least three slots to accommodate all slot classes"}
	}
	typed := spec.CarSlots + spec.TruckSlots + spec.BikeSlots
	if typed > spec.TotalSlots {
		return nil, apperrors.ValidationError{Msg: "sum of vehicle type counts cannot exceed total slots"}
	}

	block := &db.Block{
		Name:        name,
		Description: spec.Description,
		Floor:       spec.Floor,
		TotalSlots:  spec.TotalSlots,
		CreatedBy:   adminID,
	}
	slots := layoutSlots(name, spec)

	if err := s.Blocks.Create(block, slots); err != nil {
		return nil, err
	}
	log.Printf("Block %s created with %d slots by admin %d", block.Name, len(slots), adminID)
	return block, nil
}

func (s *BlockService) GetByID(id int) (*db.Block, error) { return s.Blocks.GetByID(id) }
func (s *BlockService) List() ([]db.Block, error)         { return s.Blocks.List() }

// layoutSlots computes the slot rows for a new block: classes split into
// thirds (remainder to NORMAL), vehicle types assigned in sequence with the
// untyped remainder defaulting to car.
func layoutSlots(name string, spec BlockSpec) []db.Slot {
	vvip := spec.TotalSlots / 3
	vip := spec.TotalSlots / 3

	vehicleTypes := make([]string, 0, spec.TotalSlots)
	for i := 0; i < spec.TruckSlots; i++ {
		vehicleTypes = append(vehicleTypes, db.VehicleTruck)
	}
	for i := 0; i < spec.BikeSlots; i++ {
		vehicleTypes = append(vehicleTypes, db.VehicleBike)
	}
	for len(vehicleTypes) < spec.TotalSlots {
		vehicleTypes = append(vehicleTypes, db.VehicleCar)
	}

	slots := make([]db.Slot, 0, spec.TotalSlots)
	for i := 0; i < spec.TotalSlots; i++ {
		class := db.ClassNormal
		switch {
		case i < vvip:
			class = db.ClassVVIP
		case i < vvip+vip:
			class = db.ClassVIP
		}
		slots = append(slots, db.Slot{
			SlotNumber:  fmt.Sprintf("%s-%d", name, i+1),
			Floor:       spec.Floor,
			Class:       class,
			VehicleType: vehicleTypes[i],
			Status:      db.SlotAvailable,
		})
	}
	return slots
}
