package propform

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
)

// SearchSpec exposes the property form to the agent layer: which facts are
// still missing, which supplied values were rejected, and a rendered summary.
type SearchSpec struct{}

func (SearchSpec) JsonSchema() (string, error) {
	schema := jsonschema.Reflect(&Form{})
	schema.Title = "Commercial property search requirements"
	schema.Description = "Search requirements collected from the user: budget, total size, real estate type, city, plus free-form additional preferences."
	schemaJSON, err := sonic.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(schemaJSON), nil
}

func (SearchSpec) MissingFacts(form *Form) []FieldInfo {
	var missing []FieldInfo
	for _, name := range form.MissingFields() {
		field := form.RequiredField(name)
		missing = append(missing, FieldInfo{
			Name:        name,
			DisplayName: DisplayName(name),
			Description: field.Description,
			Required:    true,
		})
	}
	return missing
}

func (SearchSpec) ValidateFacts(form *Form) []ValidationIssue {
	var issues []ValidationIssue
	for _, name := range RequiredFieldNames() {
		field := form.RequiredField(name)
		if field.Status == StatusInvalid {
			issues = append(issues, ValidationIssue{
				Name:    name,
				Value:   deref(field.Value),
				Message: patternMismatchMessage,
			})
		}
	}
	return issues
}

func (SearchSpec) Summary(form *Form) string {
	return form.Summary()
}
