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

type AvailabilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAvailabilityValidator(log *logger.Logger) *AvailabilityValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		log.Fatal("Failed to register 'clock_time' validator", "error", err)
	}
	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator", "error", err)
	}

	return &AvailabilityValidator{
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

// Validate is a pure check of a full weekly spec: struct-level tags first,
// then window ordering and pairwise overlap per weekday on the canonical
// minute-of-day form. The caller persists the spec only after this passes.
func (v *AvailabilityValidator) Validate(a *model.Availability) error {
	if err := v.validate.Struct(a); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateWindows(a)
}

func (v *AvailabilityValidator) validateWindows(a *model.Availability) error {
	var errs ValidationErrors

	type span struct {
		start, end int
		index      int
	}
	byDay := make(map[string][]span)

	for i, w := range a.Windows {
		start, err := calendar.MinuteOfDay(w.StartTime)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("windows[%d].start_time", i),
				Message: "must be a valid HH:MM 24-hour time",
			})
			continue
		}
		end, err := calendar.MinuteOfDay(w.EndTime)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("windows[%d].end_time", i),
				Message: "must be a valid HH:MM 24-hour time",
			})
			continue
		}
		if start >= end {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("windows[%d]", i),
				Message: "start_time must be before end_time",
			})
			continue
		}

		day := strings.ToLower(w.DayOfWeek)
		for _, other := range byDay[day] {
			if calendar.Overlaps(start, end, other.start, other.end) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("windows[%d]", i),
					Message: fmt.Sprintf("overlaps with windows[%d] on %s", other.index, w.DayOfWeek),
				})
			}
		}
		byDay[day] = append(byDay[day], span{start: start, end: end, index: i})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *AvailabilityValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "clock_time":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "calendar_date":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA time zone", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
