package handlers

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// uz-UZ mobile numbers: optional +998 prefix, operator code, seven digits.
var uzPhoneRX = regexp.MustCompile(`^(\+?998)?(6[125-79]|7[1-69]|88|9\d)\d{7}$`)

// validator collects per-field messages, first message wins.
type validator struct {
	Errors map[string]string
}

func newValidator() *validator {
	return &validator{Errors: make(map[string]string)}
}

func (v *validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

func (v *validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *validator) Required(value, field string) {
	v.Check(strings.TrimSpace(value) != "", field, "must be provided")
}

func (v *validator) UUID(value, field string) uuid.UUID {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "must be provided")
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		v.AddError(field, "must be a valid UUID")
		return uuid.Nil
	}
	return id
}

func (v *validator) Phone(value, field string) {
	v.Check(uzPhoneRX.MatchString(strings.ReplaceAll(value, " ", "")), field, "must be a valid mobile phone number")
}

// Date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func (v *validator) Date(value, field string) time.Time {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "must be provided")
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	v.AddError(field, "must be an ISO 8601 date")
	return time.Time{}
}
