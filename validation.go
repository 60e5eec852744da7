package dax

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NilUUID is the zero UUID, treated as "not provided" by validators.
var NilUUID = uuid.Nil

// ValidationError describes a single failed validation rule on a field. It is
// carried in error response envelopes under details.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field-level failures into one error value.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// IsRequired reports whether the value contains non-whitespace content.
func IsRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// IsRequiredUUID reports whether the value is a non-nil UUID.
func IsRequiredUUID(value uuid.UUID) bool {
	return value != NilUUID
}

// MinLength reports whether the value has at least min characters.
func MinLength(value string, min int) bool {
	return len(value) >= min
}

// MaxLength reports whether the value has at most max characters.
func MaxLength(value string, max int) bool {
	return len(value) <= max
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether the value looks like an email address. Empty values
// pass; pair with IsRequired when the field is mandatory.
func IsEmail(value string) bool {
	if value == "" {
		return true
	}
	return emailPattern.MatchString(value)
}

// MinValueInt reports whether value >= min.
func MinValueInt(value, min int) bool {
	return value >= min
}

// MaxValueInt reports whether value <= max.
func MaxValueInt(value, max int) bool {
	return value <= max
}

// IsInList reports whether value appears in list.
func IsInList[T comparable](value T, list []T) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
