package appointment

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var contactNumberPattern = regexp.MustCompile(`^0\d{10}$`)

var fieldMessages = map[string]map[string]string{
	"FirstName": {
		"required": "First name is required",
		"min":      "First name should be at least 2 characters",
	},
	"LastName":            {"required": "Last name is required"},
	"ContactNumber":       {"required": "Contact number is required", "*": "Enter a valid phone number starting with 0 and containing 11 digits"},
	"Email":               {"required": "Email is required", "email": "Invalid email format"},
	"ServiceCategory":     {"required": "Service category is required", "catalog": "Unknown service category"},
	"ServiceType":         {"required": "Service type is required", "catalog": "Service type is not offered in this category"},
	"AppointmentDateTime": {"required": "Please select a time slot"},
	"AdditionalNotes":     {"max": "Additional notes are too long"},
}

// ValidationError lists a message per offending draft field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid appointment: " + strings.Join(parts, "; ")
}

type draftValidator struct {
	v *validator.Validate
}

func newDraftValidator() *draftValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return contactNumberPattern.MatchString(fl.Field().String())
	})
	return &draftValidator{v: v}
}

// normalize trims the draft's text fields in place and validates it.
func (dv *draftValidator) normalize(d *Draft) error {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.ContactNumber = strings.TrimSpace(d.ContactNumber)
	d.Email = strings.TrimSpace(d.Email)
	d.ServiceCategory = strings.TrimSpace(d.ServiceCategory)
	d.ServiceType = strings.TrimSpace(d.ServiceType)
	d.AdditionalNotes = strings.TrimSpace(d.AdditionalNotes)

	err := dv.v.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = messageFor(fe.Field(), fe.Tag())
	}
	return out
}

func messageFor(field, tag string) string {
	if msgs, ok := fieldMessages[field]; ok {
		if m, ok := msgs[tag]; ok {
			return m
		}
		if m, ok := msgs["*"]; ok {
			return m
		}
	}
	return fmt.Sprintf("failed %s check", tag)
}
