package agent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/propform/propform/session"
)

func TestKeepSystemLastNTrimmer(t *testing.T) {
	history := []*schema.Message{
		schema.SystemMessage("rules"),
		schema.UserMessage("one"),
		schema.AssistantMessage("two", nil),
		schema.UserMessage("three"),
		schema.AssistantMessage("four", nil),
	}

	trimmed := KeepSystemLastNTrimmer{N: 2}.Trim(history)
	if len(trimmed) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(trimmed))
	}
	if trimmed[0].Role != schema.System {
		t.Error("system message must survive trimming")
	}
	if trimmed[1].Content != "three" || trimmed[2].Content != "four" {
		t.Errorf("expected the last two non-system messages, got %q, %q", trimmed[1].Content, trimmed[2].Content)
	}

	// N <= 0 keeps only system messages.
	onlySystem := KeepSystemLastNTrimmer{}.Trim(history)
	if len(onlySystem) != 1 || onlySystem[0].Role != schema.System {
		t.Errorf("expected only the system message, got %d messages", len(onlySystem))
	}

	// Under the limit, history passes through untouched.
	short := KeepSystemLastNTrimmer{N: 10}.Trim(history)
	if len(short) != len(history) {
		t.Errorf("short history should pass through, got %d messages", len(short))
	}
}

func TestHistoryStoreAppendDeduplicates(t *testing.T) {
	store := NewMemoryHistoryStore(KeepSystemLastNTrimmer{N: 10})
	ctx := session.WithStateKey(context.Background(), "h1")

	hist, err := store.Append(ctx, schema.UserMessage("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 message, got %d", len(hist))
	}

	// A repeated trailing message is dropped, a nil is skipped.
	hist, err = store.Append(ctx, schema.UserMessage("hello"), nil, schema.AssistantMessage("hi", nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(hist))
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || loaded[1].Content != "hi" {
		t.Errorf("unexpected stored history: %d messages", len(loaded))
	}
}

func TestHistoryStoreTrimsOnSave(t *testing.T) {
	store := NewMemoryHistoryStore(KeepSystemLastNTrimmer{N: 1})
	ctx := session.WithStateKey(context.Background(), "h2")

	if err := store.Save(ctx, []*schema.Message{
		schema.SystemMessage("rules"),
		schema.UserMessage("one"),
		schema.UserMessage("two"),
	}); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 messages after trim, got %d", len(loaded))
	}
	if loaded[0].Role != schema.System || loaded[1].Content != "two" {
		t.Errorf("unexpected trimmed history: %+v", loaded)
	}
}

func TestHistoryStoreClear(t *testing.T) {
	store := NewMemoryHistoryStore(nil)
	ctx := session.WithStateKey(context.Background(), "h3")

	if _, err := store.Append(ctx, schema.UserMessage("hello")); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Errorf("expected empty history after clear, got %d messages", len(loaded))
	}
}
