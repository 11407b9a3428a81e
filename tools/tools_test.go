package tools

import (
	"context"
	"testing"

	"github.com/propform/propform"
	"github.com/propform/propform/session"
)

func testContext() context.Context {
	return session.WithStateKey(context.Background(), "test-session")
}

func TestNormalizeFieldName(t *testing.T) {
	cases := map[string]string{
		"Budget":           "budget",
		"Total Size":       "total_size",
		"REAL ESTATE TYPE": "real_estate_type",
		"move in date":     "move_in_date",
	}
	for in, want := range cases {
		if got := NormalizeFieldName(in); got != want {
			t.Errorf("NormalizeFieldName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractFieldStoresRequiredField(t *testing.T) {
	sessions := session.NewMemoryManager()
	extract := extractFieldFunc(sessions)
	ctx := testContext()

	resp, err := extract(ctx, &ExtractFieldRequest{FieldName: "Budget", Value: "20,000 USD"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q, want %q (error: %s)", resp.Status, StatusSuccess, resp.Error)
	}
	if resp.Field != propform.FieldBudget {
		t.Errorf("field = %q, want %q", resp.Field, propform.FieldBudget)
	}
	if resp.IsStandardField == nil || !*resp.IsStandardField {
		t.Error("budget must be reported as a standard field")
	}

	state, err := sessions.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	form, err := session.FormFromState(state)
	if err != nil {
		t.Fatal(err)
	}
	if form.Budget.Status != propform.StatusValid || *form.Budget.Value != "20,000 USD" {
		t.Errorf("stored field = %+v", form.Budget)
	}
}

func TestExtractFieldShortCircuitsUnchangedValue(t *testing.T) {
	sessions := session.NewMemoryManager()
	extract := extractFieldFunc(sessions)
	ctx := testContext()

	first, err := extract(ctx, &ExtractFieldRequest{FieldName: "city", Value: "Mexico City"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != StatusSuccess {
		t.Fatalf("first call status = %q", first.Status)
	}

	second, err := extract(ctx, &ExtractFieldRequest{FieldName: "city", Value: "Mexico City"})
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != StatusUnchanged {
		t.Errorf("second call status = %q, want %q", second.Status, StatusUnchanged)
	}
	if second.Message == "" {
		t.Error("unchanged response should carry a message")
	}

	// The unchanged path must not count as an extraction write.
	state, _ := sessions.Get(ctx)
	if got := session.Counter(state, session.ExtractionCountKey); got != 1 {
		t.Errorf("extraction count = %d, want 1", got)
	}

	// A different value goes through again.
	third, err := extract(ctx, &ExtractFieldRequest{FieldName: "city", Value: "Barcelona"})
	if err != nil {
		t.Fatal(err)
	}
	if third.Status != StatusSuccess {
		t.Errorf("third call status = %q, want %q", third.Status, StatusSuccess)
	}
}

func TestExtractFieldAdditionalFieldAlwaysSucceeds(t *testing.T) {
	sessions := session.NewMemoryManager()
	extract := extractFieldFunc(sessions)
	ctx := testContext()

	resp, err := extract(ctx, &ExtractFieldRequest{FieldName: "Parking", Value: "yes"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q, want %q", resp.Status, StatusSuccess)
	}
	if resp.Field != "parking" {
		t.Errorf("field = %q, want %q", resp.Field, "parking")
	}
	if resp.IsStandardField == nil || *resp.IsStandardField {
		t.Error("parking must not be reported as a standard field")
	}
}

func TestExtractFieldReportsValidationError(t *testing.T) {
	sessions := session.NewMemoryManager()
	extract := extractFieldFunc(sessions)
	ctx := testContext()

	// Give the stored city field a pattern before extracting into it.
	state, err := sessions.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	form, err := session.FormFromState(state)
	if err != nil {
		t.Fatal(err)
	}
	pattern := `[A-Za-z]`
	form.City.ValidationPattern = &pattern
	if err := session.SaveForm(state, form); err != nil {
		t.Fatal(err)
	}
	if err := sessions.Save(ctx, state); err != nil {
		t.Fatal(err)
	}

	resp, err := extract(ctx, &ExtractFieldRequest{FieldName: "city", Value: "12345"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusError {
		t.Fatalf("status = %q, want %q", resp.Status, StatusError)
	}
	if resp.Error == "" {
		t.Error("error response must carry a message")
	}

	// The rejected value is still persisted with invalid status.
	form, err = session.FormFromState(state)
	if err != nil {
		t.Fatal(err)
	}
	if form.City.Status != propform.StatusInvalid || *form.City.Value != "12345" {
		t.Errorf("stored field = %+v", form.City)
	}
}

func TestCheckFormStatusCountsInvocations(t *testing.T) {
	sessions := session.NewMemoryManager()
	extract := extractFieldFunc(sessions)
	status := checkFormStatusFunc(sessions)
	ctx := testContext()

	resp, err := status(ctx, &CheckFormStatusRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FormComplete {
		t.Error("empty form must not be complete")
	}
	if len(resp.MissingFields) != 4 {
		t.Errorf("missing fields = %v", resp.MissingFields)
	}
	if resp.ValidationCount != 1 {
		t.Errorf("validation count = %d, want 1", resp.ValidationCount)
	}

	for field, value := range map[string]string{
		"budget":           "20,000 USD",
		"total size":       "500m²",
		"real estate type": "office",
		"city":             "Mexico City",
	} {
		if _, err := extract(ctx, &ExtractFieldRequest{FieldName: field, Value: value}); err != nil {
			t.Fatal(err)
		}
	}

	resp, err = status(ctx, &CheckFormStatusRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.FormComplete {
		t.Errorf("form should be complete, missing: %v", resp.MissingFields)
	}
	if len(resp.MissingFields) != 0 {
		t.Errorf("missing fields = %v", resp.MissingFields)
	}
	if resp.ValidationCount != 2 {
		t.Errorf("validation count = %d, want 2", resp.ValidationCount)
	}
	if resp.Summary == "" {
		t.Error("summary should not be empty")
	}
}

func TestToolConstructors(t *testing.T) {
	sessions := session.NewMemoryManager()

	extractTool, err := NewExtractFieldTool(sessions)
	if err != nil {
		t.Fatal(err)
	}
	info, err := extractTool.Info(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "extract_field" {
		t.Errorf("tool name = %q", info.Name)
	}

	statusTool, err := NewCheckFormStatusTool(sessions)
	if err != nil {
		t.Fatal(err)
	}
	info, err = statusTool.Info(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "check_form_status" {
		t.Errorf("tool name = %q", info.Name)
	}
}
