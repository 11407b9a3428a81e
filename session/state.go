package session

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/propform/propform"
)

// State is the external key-value session state the agent runtime hands to
// tools. The property form lives under a single fixed key as plain data; the
// remaining keys are small diagnostics counters.
type State = map[string]any

const (
	// FormStateKey is the fixed key the serialized form is stored under.
	FormStateKey = "property_form"

	ConversationTurnKey = "conversation_turn"
	ExtractionCountKey  = "extraction_count"
	ValidationCountKey  = "form_validation_count"
)

// ErrMalformedState reports stored data that does not decode into the form
// shape. This is an integration error, not a user-facing condition: the
// adapter fails fast instead of repairing foreign data.
var ErrMalformedState = errors.New("session state does not hold a decodable property form")

// InitializeForm writes a fresh empty form under FormStateKey unless one is
// already present. Safe to call on every turn.
func InitializeForm(state State) error {
	if _, ok := state[FormStateKey]; ok {
		return nil
	}
	dump, err := dumpForm(propform.NewForm())
	if err != nil {
		return err
	}
	state[FormStateKey] = dump
	return nil
}

// FormFromState decodes the stored form, initializing it first if needed.
func FormFromState(state State) (*propform.Form, error) {
	if err := InitializeForm(state); err != nil {
		return nil, err
	}
	raw, err := sonic.Marshal(state[FormStateKey])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	form := &propform.Form{}
	if err := sonic.Unmarshal(raw, form); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return form, nil
}

// SaveForm overwrites the stored form. Last writer wins; the adapter assumes
// one logical writer per session turn.
func SaveForm(state State, form *propform.Form) error {
	dump, err := dumpForm(form)
	if err != nil {
		return err
	}
	state[FormStateKey] = dump
	return nil
}

// UpdateField runs one load-mutate-save cycle for a single field.
func UpdateField(state State, fieldName, value string) (bool, string, error) {
	form, err := FormFromState(state)
	if err != nil {
		return false, "", err
	}
	success, errMsg := form.UpdateField(fieldName, value)
	if err := SaveForm(state, form); err != nil {
		return false, "", err
	}
	return success, errMsg, nil
}

func IsComplete(state State) (bool, error) {
	form, err := FormFromState(state)
	if err != nil {
		return false, err
	}
	return form.IsComplete(), nil
}

func MissingFields(state State) ([]string, error) {
	form, err := FormFromState(state)
	if err != nil {
		return nil, err
	}
	return form.MissingFields(), nil
}

func Summary(state State) (string, error) {
	form, err := FormFromState(state)
	if err != nil {
		return "", err
	}
	return form.Summary(), nil
}

// Counter reads a diagnostics counter, tolerating the numeric types JSON
// round-trips produce.
func Counter(state State, key string) int {
	switch v := state[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// IncrementCounter bumps a diagnostics counter and returns the new value.
func IncrementCounter(state State, key string) int {
	next := Counter(state, key) + 1
	state[key] = next
	return next
}

// dumpForm serializes a form into the nested plain-data shape stored in the
// session state.
func dumpForm(form *propform.Form) (map[string]any, error) {
	raw, err := sonic.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize form: %w", err)
	}
	var dump map[string]any
	if err := sonic.Unmarshal(raw, &dump); err != nil {
		return nil, fmt.Errorf("failed to serialize form: %w", err)
	}
	return dump, nil
}
