package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/propform/propform"
	"github.com/propform/propform/session"
)

const (
	assistantName        = "real_estate_coordinator"
	assistantDescription = "Coordinates the commercial real estate property inquiry conversation"

	// maxToolSteps bounds one turn: the model may delegate to both
	// specialists, possibly more than once, before answering.
	maxToolSteps = 12
)

// Assistant drives one conversation turn at a time: it loads the session
// form, builds the system instruction plus the current status context, and
// runs the tool loop until the model produces a reply. The coordinator does
// not touch the form itself; it delegates to the field-extractor and
// form-validator specialists, which own the form tools. Starting a new turn
// for a session cancels that session's in-flight turn, which serializes the
// form's read-modify-write cycle in practice.
type Assistant struct {
	sessions *session.Manager
	runner   *react.Agent
	schema   string

	mu       sync.Mutex
	inflight map[string]*turnHandle
}

type turnHandle struct {
	cancel context.CancelFunc
}

func NewAssistant(ctx context.Context, chatModel model.ToolCallingChatModel, sessions *session.Manager) (*Assistant, error) {
	extractorTool, err := NewFieldExtractorTool(ctx, chatModel, sessions)
	if err != nil {
		return nil, err
	}
	validatorTool, err := NewFormValidatorTool(ctx, chatModel, sessions)
	if err != nil {
		return nil, err
	}
	schemaJSON, err := (propform.SearchSpec{}).JsonSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build form schema: %w", err)
	}
	runner, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: []tool.BaseTool{extractorTool, validatorTool},
		},
		MaxStep: maxToolSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create react agent: %w", err)
	}
	return &Assistant{
		sessions: sessions,
		runner:   runner,
		schema:   schemaJSON,
		inflight: map[string]*turnHandle{},
	}, nil
}

// Run processes one turn synchronously and returns the assistant reply.
func (a *Assistant) Run(ctx context.Context, history []*schema.Message) (*schema.Message, error) {
	turnCtx, key, handle := a.beginTurn(ctx)
	defer a.endTurn(key, handle)

	messages, err := a.prepareTurn(turnCtx, history)
	if err != nil {
		return nil, err
	}
	return a.runner.Generate(turnCtx, messages)
}

// Stream processes one turn and streams the assistant reply. The turn is
// closed out when the stream is drained or the caller closes the reader.
func (a *Assistant) Stream(ctx context.Context, history []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	turnCtx, key, handle := a.beginTurn(ctx)

	messages, err := a.prepareTurn(turnCtx, history)
	if err != nil {
		a.endTurn(key, handle)
		return nil, err
	}
	stream, err := a.runner.Stream(turnCtx, messages)
	if err != nil {
		a.endTurn(key, handle)
		return nil, err
	}
	return a.relayStream(stream, key, handle), nil
}

// relayStream forwards the model stream and ties turn cleanup to its end, so
// a finished stream does not leave a cancelable turn behind in the registry.
func (a *Assistant) relayStream(src *schema.StreamReader[*schema.Message], key string, handle *turnHandle) *schema.StreamReader[*schema.Message] {
	out, in := schema.Pipe[*schema.Message](0)
	go func() {
		defer func() {
			src.Close()
			in.Close()
			a.endTurn(key, handle)
		}()
		for {
			msg, err := src.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				in.Send(nil, err)
				return
			}
			if closed := in.Send(msg, nil); closed {
				return
			}
		}
	}()
	return out
}

func (a *Assistant) prepareTurn(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
	state, err := a.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	turn := session.IncrementCounter(state, session.ConversationTurnKey)
	if err := a.sessions.Save(ctx, state); err != nil {
		return nil, err
	}
	form, err := session.FormFromState(state)
	if err != nil {
		return nil, err
	}
	slog.Debug("Starting conversation turn", "turn", turn, "missing", form.MissingFields())

	system := schema.SystemMessage(CoordinatorInstruction(form) + "\n\n" + FormatSchemaContext(a.schema) + "\n\n" + FormatStatusContext(form))
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, system)
	messages = append(messages, history...)
	return messages, nil
}

func (a *Assistant) beginTurn(ctx context.Context) (context.Context, string, *turnHandle) {
	key, _ := session.StateKeyOrDefault(ctx)
	turnCtx, cancel := context.WithCancel(ctx)
	handle := &turnHandle{cancel: cancel}

	a.mu.Lock()
	if previous, ok := a.inflight[key]; ok {
		slog.Debug("Cancelling previous request", "session", key)
		previous.cancel()
	}
	a.inflight[key] = handle
	a.mu.Unlock()

	return turnCtx, key, handle
}

func (a *Assistant) endTurn(key string, handle *turnHandle) {
	a.mu.Lock()
	if a.inflight[key] == handle {
		delete(a.inflight, key)
	}
	a.mu.Unlock()
	handle.cancel()
}
