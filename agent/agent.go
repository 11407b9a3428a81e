package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent adapts the Assistant to the adk.Agent interface so it can run under
// an adk.Runner.
type Agent struct {
	assistant *Assistant
}

func NewAgent(assistant *Assistant) *Agent {
	return &Agent{assistant: assistant}
}

func (a *Agent) Name(ctx context.Context) string {
	return assistantName
}

func (a *Agent) Description(ctx context.Context) string {
	return assistantDescription
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("no messages in input"),
			})
			return
		}
		msg, err := a.assistant.Run(ctx, input.Messages)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("assistant run failed: %w", err),
			})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     msg,
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}
