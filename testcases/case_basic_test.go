package testcases

import (
	"context"
	"testing"

	"github.com/propform/propform"
	"github.com/propform/propform/session"
)

// TestBasicConversation walks a full inquiry: partial information first, the
// rest in a second message, then a status question once the form is complete.
func TestBasicConversation(t *testing.T) {
	t.Parallel()
	harness := NewTestHarness(t)
	ctx := session.WithStateKey(context.Background(), "case-basic")

	reply := harness.Turn(ctx, t, "Hi, I'm looking for an office in Mexico City.")
	t.Logf("first reply: %s", reply)

	form := harness.Form(ctx, t)
	if form.City.Status != propform.StatusValid {
		t.Errorf("city should be extracted, got status %q", form.City.Status)
	}
	if form.RealEstateType.Status != propform.StatusValid {
		t.Errorf("real estate type should be extracted, got status %q", form.RealEstateType.Status)
	}
	if form.IsComplete() {
		t.Error("form must not be complete after two of four fields")
	}

	reply = harness.Turn(ctx, t, "My budget is 20,000 USD and I need about 500m².")
	t.Logf("second reply: %s", reply)

	form = harness.Form(ctx, t)
	if !form.IsComplete() {
		t.Errorf("form should be complete, missing: %v", form.MissingFields())
	}

	reply = harness.Turn(ctx, t, "Can you summarize what you have so far?")
	t.Logf("summary reply: %s", reply)
	if reply == "" {
		t.Error("expected a non-empty summary reply")
	}

	state, err := harness.Sessions.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if turns := session.Counter(state, session.ConversationTurnKey); turns != 3 {
		t.Errorf("conversation turns = %d, want 3", turns)
	}
	if extractions := session.Counter(state, session.ExtractionCountKey); extractions < 4 {
		t.Errorf("expected at least 4 extractions, got %d", extractions)
	}
}
