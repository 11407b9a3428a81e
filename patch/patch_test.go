package patch

import (
	"testing"

	"github.com/propform/propform"
)

func TestFromInitialDiffsSeededFields(t *testing.T) {
	initial := propform.NewForm()
	initial.UpdateField(propform.FieldCity, "Mexico City")

	ops, err := FromInitial(propform.NewForm(), initial)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) == 0 {
		t.Fatal("expected operations for the seeded city")
	}

	paths := make(map[string]bool, len(ops))
	for _, op := range ops {
		paths[op.Path] = true
	}
	if !paths["/city/value"] {
		t.Errorf("missing /city/value operation, got %+v", ops)
	}
	if !paths["/city/status"] {
		t.Errorf("missing /city/status operation, got %+v", ops)
	}
	// Untouched fields must not generate noise.
	for _, op := range ops {
		if op.Path == "/budget/value" || op.Path == "/total_size/value" {
			t.Errorf("unexpected operation for untouched field: %+v", op)
		}
	}
}

func TestSeedRoundTrip(t *testing.T) {
	initial := propform.NewForm()
	initial.UpdateField(propform.FieldCity, "Mexico City")

	ops, err := FromInitial(propform.NewForm(), initial)
	if err != nil {
		t.Fatal(err)
	}
	seeded, err := ApplyRFC6902(propform.NewForm(), ops)
	if err != nil {
		t.Fatal(err)
	}

	if seeded.City.Status != propform.StatusValid {
		t.Errorf("city status = %q, want %q", seeded.City.Status, propform.StatusValid)
	}
	if seeded.City.Value == nil || *seeded.City.Value != "Mexico City" {
		t.Errorf("city value = %v", seeded.City.Value)
	}
	if seeded.Budget.Status != propform.StatusNotProvided {
		t.Errorf("budget must stay untouched, got %q", seeded.Budget.Status)
	}
	if seeded.IsComplete() {
		t.Error("one seeded field must not complete the form")
	}
}

func TestApplyRFC6902EmptyPatchIsNoop(t *testing.T) {
	form := propform.NewForm()
	result, err := ApplyRFC6902(form, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result != form {
		t.Error("empty patch should return the form unchanged")
	}
}

func TestApplyRFC6902RejectsShapeViolations(t *testing.T) {
	ops := []Operation{
		{Op: OperationReplace, Path: "/city", Value: "just a string"},
	}
	if _, err := ApplyRFC6902(propform.NewForm(), ops); err == nil {
		t.Error("patch that breaks the form shape should be rejected")
	}
}

func TestFixOperationsAdaptsToDocumentState(t *testing.T) {
	doc := []byte(`{"city":{"value":"Berlin"}}`)

	ops := []Operation{
		{Op: OperationReplace, Path: "/city/value", Value: "Madrid"},
		{Op: OperationReplace, Path: "/city/status", Value: "valid"},
		{Op: OperationRemove, Path: "/budget"},
	}
	fixed := FixOperations(doc, ops)

	if len(fixed) != 2 {
		t.Fatalf("expected 2 operations, got %+v", fixed)
	}
	if fixed[0].Op != OperationReplace || fixed[0].Path != "/city/value" {
		t.Errorf("existing path must keep replace: %+v", fixed[0])
	}
	if fixed[1].Op != OperationAdd || fixed[1].Path != "/city/status" {
		t.Errorf("missing path must downgrade to add: %+v", fixed[1])
	}
}

func TestEscapeJSONPointer(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"a/b":       "a~1b",
		"tilde~key": "tilde~0key",
	}
	for in, want := range cases {
		if got := escapeJSONPointer(in); got != want {
			t.Errorf("escapeJSONPointer(%q) = %q, want %q", in, got, want)
		}
	}
}
