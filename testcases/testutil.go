package testcases

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"github.com/propform/propform"
	"github.com/propform/propform/agent"
	"github.com/propform/propform/session"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL:%q, Model:%q}", c.BaseURL, c.Model)
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	err = sonic.Unmarshal(file, &conf)
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("PROPFORM_RUN_LIVE_TESTS") != "1" {
		t.Skip("set PROPFORM_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	ctx := context.Background()
	conf, err := loadConfig("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
		return nil
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

// Harness bundles one assistant with its session and history stores, routed
// to a per-test session so parallel cases never share form state.
type Harness struct {
	Sessions  *session.Manager
	Assistant *agent.Assistant
	History   *agent.HistoryStore
}

func NewTestHarness(t *testing.T) *Harness {
	chatModel := InitChatModel(t)
	if chatModel == nil {
		return nil
	}

	sessions := session.NewMemoryManager()
	assistant, err := agent.NewAssistant(context.Background(), chatModel, sessions)
	if err != nil {
		t.Fatalf("failed to create assistant: %v", err)
	}
	return &Harness{
		Sessions:  sessions,
		Assistant: assistant,
		History:   agent.NewMemoryHistoryStore(agent.KeepSystemLastNTrimmer{N: 50}),
	}
}

// Turn sends one user message through the assistant and returns the reply
// content. History is persisted between turns.
func (h *Harness) Turn(ctx context.Context, t *testing.T, text string) string {
	history, err := h.History.Append(ctx, schema.UserMessage(text))
	if err != nil {
		t.Fatalf("failed to append user message: %v", err)
	}
	reply, err := h.Assistant.Run(ctx, history)
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if _, err := h.History.Append(ctx, reply); err != nil {
		t.Fatalf("failed to append reply: %v", err)
	}
	return reply.Content
}

// Form reads the current session form back from the session store.
func (h *Harness) Form(ctx context.Context, t *testing.T) *propform.Form {
	state, err := h.Sessions.Get(ctx)
	if err != nil {
		t.Fatalf("failed to load session state: %v", err)
	}
	form, err := session.FormFromState(state)
	if err != nil {
		t.Fatalf("failed to decode form: %v", err)
	}
	return form
}
