package testcases

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/propform/propform"
	"github.com/propform/propform/agent"
	"github.com/propform/propform/session"
)

// TestRunnerIntegration drives the assistant through an adk.Runner, the way
// the example application embeds it.
func TestRunnerIntegration(t *testing.T) {
	t.Parallel()
	harness := NewTestHarness(t)
	ctx := session.WithStateKey(context.Background(), "case-runner")

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent.NewAgent(harness.Assistant),
	})

	iter := runner.Run(ctx, []adk.Message{
		schema.UserMessage("Looking for retail space in Madrid, budget 30,000 USD, about 200m²."),
	})

	var reply *schema.Message
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			t.Fatalf("runner event error: %v", event.Err)
		}
		if event.Output != nil && event.Output.MessageOutput != nil {
			msg, err := event.Output.MessageOutput.GetMessage()
			if err != nil {
				t.Fatalf("failed to read message output: %v", err)
			}
			reply = msg
		}
	}
	if reply == nil || reply.Content == "" {
		t.Fatal("expected an assistant reply from the runner")
	}
	t.Logf("reply: %s", reply.Content)

	form := harness.Form(ctx, t)
	if !form.IsComplete() {
		t.Errorf("form should be complete after one rich message, missing: %v", form.MissingFields())
	}
	if form.RealEstateType.Value == nil || *form.RealEstateType.Value == "" {
		t.Error("real estate type should be stored")
	}
	if form.City.Status != propform.StatusValid {
		t.Errorf("city should be extracted, got status %q", form.City.Status)
	}
}
