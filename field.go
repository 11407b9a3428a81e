package propform

import (
	"log/slog"
	"regexp"
)

type FieldStatus string

const (
	StatusNotProvided FieldStatus = "not_provided"
	StatusInvalid     FieldStatus = "invalid"
	StatusValid       FieldStatus = "valid"
)

// patternMismatchMessage is intentionally generic: it never echoes the pattern
// back to the model or the user.
const patternMismatchMessage = "The value does not match the expected pattern for this field."

// Field is a single form attribute. Description, Examples and ValidationPattern
// are fixed at definition time; Status and Value change as the conversation
// progresses.
type Field struct {
	Status            FieldStatus `json:"status" jsonschema:"enum=not_provided,enum=invalid,enum=valid"`
	Value             *string     `json:"value"`
	Description       string      `json:"description"`
	Examples          []string    `json:"examples"`
	ValidationPattern *string     `json:"validation_pattern"`
}

func NewField(description string, examples ...string) *Field {
	return &Field{
		Status:      StatusNotProvided,
		Description: description,
		Examples:    examples,
	}
}

// Validate checks value against the field's pattern. It is a pure check: the
// caller decides whether to store the value and which status to assign.
// A field without a pattern accepts anything.
func (f *Field) Validate(value string) (bool, string) {
	if f.ValidationPattern == nil || *f.ValidationPattern == "" {
		return true, ""
	}
	// Patterns must match from the start of the value.
	re, err := regexp.Compile("^(?:" + *f.ValidationPattern + ")")
	if err != nil {
		slog.Error("Field validation pattern does not compile", "pattern", *f.ValidationPattern, "error", err)
		return false, patternMismatchMessage
	}
	if !re.MatchString(value) {
		return false, patternMismatchMessage
	}
	return true, ""
}

// set assigns the value and the status that goes with the validation outcome.
func (f *Field) set(value string, valid bool) {
	v := value
	f.Value = &v
	if valid {
		f.Status = StatusValid
	} else {
		f.Status = StatusInvalid
	}
}
