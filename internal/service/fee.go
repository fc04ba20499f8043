package service

import (
	"time"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

// ComputeFee bills whole hours: the duration is rounded up, with a one hour
// floor for sub-hour stays. The rate must already be resolved; a missing
// rate is the caller's DependencyError, never a zero fee.
func ComputeFee(rate *db.Rate, entry, exit time.Time) (int, error) {
	if exit.Before(entry) {
		return 0, apperrors.ValidationError{Msg: "exit time precedes entry time"}
	}
	hours := int((exit.Sub(entry) + time.Hour - 1) / time.Hour)
	if hours < 1 {
		hours = 1
	}
	return hours * rate.HourlyRate, nil
}
