package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"medbook/pkg/calendar"
	"medbook/pkg/logger"
	"medbook/pkg/model"

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

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		log.Fatal("Failed to register 'clock_time' validator", "error", err)
	}
	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator", "error", err)
	}

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func validateClockTime(fl validator.FieldLevel) bool {
	clock := strings.TrimSpace(fl.Field().String())
	if clock == "" {
		return true
	}
	_, err := calendar.MinuteOfDay(clock)
	return err == nil
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	date := strings.TrimSpace(fl.Field().String())
	if date == "" {
		return true
	}
	_, err := time.Parse(calendar.DateLayout, date)
	return err == nil
}

// ValidateBookingRequest checks struct tags plus start/end ordering. Whether
// the requested times name a real slot is the availability service's call, not
// a validation concern.
func (av *AppointmentValidator) ValidateBookingRequest(req *model.BookingRequest) error {
	if err := av.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return av.translateValidationErrors(validationErrs)
		}
		return err
	}

	start, err := calendar.MinuteOfDay(req.StartTime)
	if err != nil {
		return ValidationErrors{{Field: "start_time", Message: "must be a valid HH:MM 24-hour time"}}
	}
	end, err := calendar.MinuteOfDay(req.EndTime)
	if err != nil {
		return ValidationErrors{{Field: "end_time", Message: "must be a valid HH:MM 24-hour time"}}
	}
	if start >= end {
		return ValidationErrors{{Field: "start_time", Message: "must be before end_time"}}
	}

	return nil
}

func (av *AppointmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ID", err.Field())
		case "clock_time":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "calendar_date":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
