// Package tools exposes the form operations the agent runtime can invoke:
// extract_field to write a value into the session form and check_form_status
// to query completeness.
package tools

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/propform/propform"
	"github.com/propform/propform/session"
)

const (
	extractFieldToolName        = "extract_field"
	extractFieldToolDescription = "Extract and store a property requirement field in the session state. Field names are normalized to snake_case; unknown names become additional fields."
)

const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusUnchanged = "unchanged"
)

type ExtractFieldRequest struct {
	FieldName string `json:"field_name" jsonschema:"required,description=Name of the field to update"`
	Value     string `json:"value" jsonschema:"required,description=Exact value the user provided"`
}

type ExtractFieldResponse struct {
	Status          string `json:"status"`
	Field           string `json:"field"`
	Value           string `json:"value"`
	Message         string `json:"message,omitempty"`
	Error           string `json:"error,omitempty"`
	IsStandardField *bool  `json:"is_standard_field,omitempty"`
}

// NewExtractFieldTool builds the extract_field tool over the session manager.
// The target session is routed through the context state key.
func NewExtractFieldTool(sessions *session.Manager) (tool.InvokableTool, error) {
	return utils.InferTool(extractFieldToolName, extractFieldToolDescription, extractFieldFunc(sessions))
}

func extractFieldFunc(sessions *session.Manager) func(ctx context.Context, req *ExtractFieldRequest) (*ExtractFieldResponse, error) {
	return func(ctx context.Context, req *ExtractFieldRequest) (*ExtractFieldResponse, error) {
		normalized := NormalizeFieldName(req.FieldName)
		slog.Debug("Extracting field", "field", normalized, "value", req.Value)

		state, err := sessions.Get(ctx)
		if err != nil {
			return nil, err
		}
		form, err := session.FormFromState(state)
		if err != nil {
			return nil, err
		}
		isStandard := slices.Contains(propform.RequiredFieldNames(), normalized)

		// Skip the write entirely when the model repeats a value it already
		// stored; a model that re-extracts across turns must not cause
		// redundant downstream effects.
		if current, ok := currentValue(form, normalized, isStandard); ok && current == req.Value {
			slog.Debug("Field already has this value", "field", normalized)
			return &ExtractFieldResponse{
				Status:  StatusUnchanged,
				Field:   normalized,
				Value:   req.Value,
				Message: "Field already has this value",
			}, nil
		}

		session.IncrementCounter(state, session.ExtractionCountKey)
		success, errMsg := form.UpdateField(normalized, req.Value)
		if err := session.SaveForm(state, form); err != nil {
			return nil, err
		}
		if err := sessions.Save(ctx, state); err != nil {
			return nil, err
		}

		if !success {
			slog.Warn("Failed to update field", "field", normalized, "error", errMsg)
			if errMsg == "" {
				errMsg = "Validation failed"
			}
			return &ExtractFieldResponse{
				Status: StatusError,
				Field:  normalized,
				Value:  req.Value,
				Error:  errMsg,
			}, nil
		}

		slog.Info("Updated field", "field", normalized, "value", req.Value, "standard", isStandard)
		return &ExtractFieldResponse{
			Status:          StatusSuccess,
			Field:           normalized,
			Value:           req.Value,
			IsStandardField: &isStandard,
		}, nil
	}
}

// NormalizeFieldName lowercases the name and turns spaces into underscores,
// matching the snake_case keys the form stores.
func NormalizeFieldName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// currentValue returns the stored value for a known field. A field that has
// never been set reports false: a fresh empty value is still a real write.
func currentValue(form *propform.Form, name string, isStandard bool) (string, bool) {
	var field *propform.Field
	if isStandard {
		field = form.RequiredField(name)
	} else if form.AdditionalFields != nil {
		field, _ = form.AdditionalFields.Get(name)
	}
	if field == nil || field.Value == nil {
		return "", false
	}
	return *field.Value, true
}
