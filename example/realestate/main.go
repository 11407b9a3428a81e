package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/propform/propform"
	"github.com/propform/propform/agent"
	"github.com/propform/propform/patch"
	"github.com/propform/propform/session"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	city := flag.String("city", "", "seed the form with an already-known city")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := startApp(context.Background(), config, *city); err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, config *Config, city string) error {
	slog.SetLogLoggerLevel(slog.LevelInfo)
	ctx = session.WithStateKey(ctx, "realestate")

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}

	sessions := session.NewMemoryManager()
	historyStore := agent.NewMemoryHistoryStore(agent.KeepSystemLastNTrimmer{N: 50})

	if city != "" {
		if err := seedCity(ctx, sessions, city); err != nil {
			return err
		}
	}

	assistant, err := agent.NewAssistant(ctx, cm, sessions)
	if err != nil {
		return err
	}
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent.NewAgent(assistant),
	})

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Welcome to the commercial property assistant. Tell me what you are looking for (e.g., an office in Mexico City):")
	for {
		fmt.Print("You: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("Input closed. Bye.")
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		history, hErr := historyStore.Append(ctx, schema.UserMessage(input))
		if hErr != nil {
			return hErr
		}
		iter := runner.Run(ctx, history)
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			if _, aErr := historyStore.Append(ctx, msg); aErr != nil {
				return aErr
			}
			fmt.Printf("\nAssistant: %v\n======\n", msg.Content)
		}
		state, sErr := sessions.Get(ctx)
		if sErr != nil {
			return sErr
		}
		if complete, cErr := session.IsComplete(state); cErr == nil && complete {
			summary, _ := session.Summary(state)
			fmt.Printf("\n%s\n", summary)
		}
	}
	return nil
}

// seedCity pre-fills the city before the conversation starts, the same way a
// web widget would seed values it already knows about the visitor.
func seedCity(ctx context.Context, sessions *session.Manager, city string) error {
	state, err := sessions.Get(ctx)
	if err != nil {
		return err
	}
	form, err := session.FormFromState(state)
	if err != nil {
		return err
	}

	seeded := propform.NewForm()
	seeded.UpdateField(propform.FieldCity, city)

	ops, err := patch.FromInitial(form, seeded)
	if err != nil {
		return err
	}
	form, err = patch.ApplyRFC6902(form, ops)
	if err != nil {
		return err
	}
	if err := session.SaveForm(state, form); err != nil {
		return err
	}
	return sessions.Save(ctx, state)
}
