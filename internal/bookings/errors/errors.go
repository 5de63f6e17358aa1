package errors

import (
	"errors"

	"courtbook/pkg/model"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidBooking = errors.New("booking is malformed")

	ErrSlotConflict = errors.New("booking time conflicts with existing booking")

	ErrInvalidTransition = model.ErrInvalidTransition

	ErrPersistence = errors.New("booking storage failure")
)
