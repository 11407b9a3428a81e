package tools

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/propform/propform/session"
)

const (
	checkFormStatusToolName        = "check_form_status"
	checkFormStatusToolDescription = "Check the current status of the property search form: completion flag, missing required fields, and a rendered summary."
)

type CheckFormStatusRequest struct{}

type CheckFormStatusResponse struct {
	FormComplete  bool     `json:"form_complete"`
	MissingFields []string `json:"missing_fields"`
	Summary       string   `json:"summary"`

	// ValidationCount is a diagnostics counter of how many times this tool has
	// been invoked in the session. Not used for business logic.
	ValidationCount int `json:"validation_count"`
}

// NewCheckFormStatusTool builds the check_form_status tool over the session
// manager.
func NewCheckFormStatusTool(sessions *session.Manager) (tool.InvokableTool, error) {
	return utils.InferTool(checkFormStatusToolName, checkFormStatusToolDescription, checkFormStatusFunc(sessions))
}

func checkFormStatusFunc(sessions *session.Manager) func(ctx context.Context, req *CheckFormStatusRequest) (*CheckFormStatusResponse, error) {
	return func(ctx context.Context, req *CheckFormStatusRequest) (*CheckFormStatusResponse, error) {
		slog.Debug("Checking form status")

		state, err := sessions.Get(ctx)
		if err != nil {
			return nil, err
		}
		form, err := session.FormFromState(state)
		if err != nil {
			return nil, err
		}

		count := session.IncrementCounter(state, session.ValidationCountKey)
		if err := sessions.Save(ctx, state); err != nil {
			return nil, err
		}

		complete := form.IsComplete()
		if complete {
			slog.Info("Form is complete")
		}

		return &CheckFormStatusResponse{
			FormComplete:    complete,
			MissingFields:   form.MissingFields(),
			Summary:         form.Summary(),
			ValidationCount: count,
		}, nil
	}
}
