package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"courtbook/internal/bookings/availability"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// WindowPolicy is the caller-side booking window rule set: how long a
// reservation may be, how far ahead it must be made and when courts are open.
type WindowPolicy struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	MinLeadTime time.Duration
	Hours       availability.BusinessHours
}

func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{
		MinDuration: time.Hour,
		MaxDuration: 4 * time.Hour,
		MinLeadTime: time.Hour,
		Hours:       availability.DefaultBusinessHours(),
	}
}

type BookingValidator struct {
	validate *validator.Validate
	policy   WindowPolicy
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger, policy WindowPolicy) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("printable_notes", validatePrintableNotes); err != nil {
		log.Fatal("Failed to register 'printable_notes' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		policy:   policy,
		logger:   log,
	}
}

func validatePrintableNotes(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

// Validate checks the well-formedness rules every stored booking must satisfy.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if booking == nil {
		return ValidationErrors{{Field: "Booking", Message: "booking is required"}}
	}
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	if err := v.validate.Var(booking.Notes, "printable_notes"); err != nil {
		return ValidationErrors{{Field: "Notes", Message: "notes must not contain control characters"}}
	}

	if !booking.EndTime.After(booking.StartTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

// ValidateWindow applies the caller-side policy to a requested interval. The
// ledger itself accepts any positive interval.
func (v *BookingValidator) ValidateWindow(start, end, now time.Time) error {
	var errs ValidationErrors

	if !end.After(start) {
		return ValidationErrors{{Field: "EndTime", Message: "end_time must be after start_time"}}
	}

	duration := end.Sub(start)
	if v.policy.MinDuration > 0 && duration < v.policy.MinDuration {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: fmt.Sprintf("booking must last at least %s", v.policy.MinDuration),
		})
	}
	if v.policy.MaxDuration > 0 && duration > v.policy.MaxDuration {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: fmt.Sprintf("booking must last at most %s", v.policy.MaxDuration),
		})
	}
	if start.Before(now.Add(v.policy.MinLeadTime)) {
		errs = append(errs, ValidationError{
			Field:   "StartTime",
			Message: fmt.Sprintf("booking must start at least %s from now", v.policy.MinLeadTime),
		})
	}
	if !v.policy.Hours.Contains(start, end) {
		errs = append(errs, ValidationError{
			Field: "StartTime",
			Message: fmt.Sprintf("booking must fall within business hours %s-%s",
				v.policy.Hours.Open, v.policy.Hours.Close),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
