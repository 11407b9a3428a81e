package propform

import (
	"fmt"
	"log/slog"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Canonical names of the four required fields. Matching is exact: anything
// else, including near-misses, is routed to the additional-fields map.
const (
	FieldBudget         = "budget"
	FieldTotalSize      = "total_size"
	FieldRealEstateType = "real_estate_type"
	FieldCity           = "city"
)

// RequiredFieldNames returns the required field names in declaration order.
func RequiredFieldNames() []string {
	return []string{FieldBudget, FieldTotalSize, FieldRealEstateType, FieldCity}
}

// Form aggregates the search requirements for a commercial property: four
// fixed required fields plus an open-ended, insertion-ordered map of anything
// else the user mentions.
type Form struct {
	Budget         *Field `json:"budget" jsonschema:"description=Budget for the property"`
	TotalSize      *Field `json:"total_size" jsonschema:"description=Total size requirement"`
	RealEstateType *Field `json:"real_estate_type" jsonschema:"description=Type of real estate"`
	City           *Field `json:"city" jsonschema:"description=City location"`

	AdditionalFields *orderedmap.OrderedMap[string, *Field] `json:"additional_fields"`

	// FormComplete is a derived cache, recomputed after every required-field
	// update. True iff all four required fields are valid.
	FormComplete bool `json:"form_complete"`
}

func NewForm() *Form {
	return &Form{
		Budget: NewField(
			"Budget for the property (e.g., 20,000 USD)",
			"I have a budget of 20,000 USD",
			"My budget is 50,000 dollars",
		),
		TotalSize: NewField(
			"Total size requirement (e.g., 500m²)",
			"I need 500m²",
			"I'm looking for 300 square meters",
		),
		RealEstateType: NewField(
			"Type of real estate (e.g., office, retail, warehouse)",
			"I am looking for an office space",
			"I need a retail location",
		),
		City: NewField(
			"City location (e.g., Mexico City)",
			"I want a property in Mexico City",
			"Looking in Barcelona",
		),
		AdditionalFields: orderedmap.New[string, *Field](),
	}
}

// RequiredField returns the required field for a canonical name, or nil.
func (f *Form) RequiredField(name string) *Field {
	switch name {
	case FieldBudget:
		return f.Budget
	case FieldTotalSize:
		return f.TotalSize
	case FieldRealEstateType:
		return f.RealEstateType
	case FieldCity:
		return f.City
	default:
		return nil
	}
}

// UpdateField stores value under name. Required fields are validated and keep
// the value even when it fails validation, so the rejected input stays
// visible. Additional fields are created lazily and trusted as-is; they can
// never fail.
func (f *Form) UpdateField(name, value string) (bool, string) {
	slog.Debug("Updating field", "field", name, "value", value)

	if field := f.RequiredField(name); field != nil {
		valid, errMsg := field.Validate(value)
		field.set(value, valid)
		f.updateCompletionStatus()
		if !valid {
			slog.Warn("Field validation failed", "field", name, "error", errMsg)
		}
		return valid, errMsg
	}

	if f.AdditionalFields == nil {
		f.AdditionalFields = orderedmap.New[string, *Field]()
	}
	if field, ok := f.AdditionalFields.Get(name); ok {
		slog.Debug("Updating existing additional field", "field", name)
		field.set(value, true)
		return true, ""
	}
	slog.Debug("Creating new additional field", "field", name)
	field := NewField("Additional field: "+name, value)
	field.set(value, true)
	f.AdditionalFields.Set(name, field)
	return true, ""
}

// IsComplete reports whether every required field is valid.
func (f *Form) IsComplete() bool {
	for _, name := range RequiredFieldNames() {
		if f.RequiredField(name).Status != StatusValid {
			return false
		}
	}
	return true
}

func (f *Form) updateCompletionStatus() bool {
	f.FormComplete = f.IsComplete()
	return f.FormComplete
}

// MissingFields returns the required fields that are not yet valid, in
// declaration order.
func (f *Form) MissingFields() []string {
	missing := make([]string, 0, 4)
	for _, name := range RequiredFieldNames() {
		if f.RequiredField(name).Status != StatusValid {
			missing = append(missing, name)
		}
	}
	return missing
}

// Summary renders a markdown snapshot of the form: required fields with their
// validation markers, additional fields if any, and a completion banner.
func (f *Form) Summary() string {
	lines := []string{"### Required Fields"}

	for _, name := range RequiredFieldNames() {
		field := f.RequiredField(name)
		display := DisplayName(name)
		switch field.Status {
		case StatusValid:
			lines = append(lines, fmt.Sprintf("✅ **%s**: %s", display, deref(field.Value)))
		case StatusInvalid:
			lines = append(lines, fmt.Sprintf("❌ **%s**: %s (Invalid)", display, deref(field.Value)))
		default:
			lines = append(lines, fmt.Sprintf("⬜ **%s**: Not provided", display))
		}
	}

	if f.AdditionalFields != nil && f.AdditionalFields.Len() > 0 {
		lines = append(lines, "\n### Additional Fields")
		for pair := f.AdditionalFields.Oldest(); pair != nil; pair = pair.Next() {
			lines = append(lines, fmt.Sprintf("📌 **%s**: %s", DisplayName(pair.Key), deref(pair.Value.Value)))
		}
	}

	lines = append(lines, "\n### Form Status")
	if f.FormComplete {
		lines = append(lines, "✅ All required fields are complete!")
	} else {
		missing := f.MissingFields()
		quoted := make([]string, len(missing))
		for i, name := range missing {
			quoted[i] = "`" + name + "`"
		}
		lines = append(lines, "⬜ Waiting for: "+strings.Join(quoted, ", "))
	}

	return strings.Join(lines, "\n")
}

// DisplayName turns a normalized field name into its human form, e.g.
// "real_estate_type" into "Real Estate Type".
func DisplayName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
