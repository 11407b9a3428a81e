package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/propform/propform"
	"github.com/propform/propform/session"
	"github.com/propform/propform/tools"
)

const (
	fieldExtractorName        = "field_extractor"
	fieldExtractorDescription = "Extracts and validates fields from user messages"

	formValidatorName        = "form_validator"
	formValidatorDescription = "Validates form completeness and guides the user to fill all required fields"

	// maxSubAgentSteps bounds one delegation: a specialist may call its tool
	// several times before reporting back.
	maxSubAgentSteps = 8
)

// DelegateRequest is the payload the coordinator hands to a specialist tool.
type DelegateRequest struct {
	Request string `json:"request" jsonschema:"required,description=The user message to hand to the specialist"`
}

type DelegateResponse struct {
	Content string `json:"content"`
}

// NewFieldExtractorTool builds the field-extractor specialist and exposes it
// to the coordinator as a tool. The specialist owns the extract_field tool.
func NewFieldExtractorTool(ctx context.Context, chatModel model.ToolCallingChatModel, sessions *session.Manager) (tool.InvokableTool, error) {
	extractTool, err := tools.NewExtractFieldTool(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to create extract_field tool: %w", err)
	}
	return newSubAgentTool(ctx, fieldExtractorName, fieldExtractorDescription,
		ExtractorInstruction(propform.NewForm()), chatModel, []tool.BaseTool{extractTool})
}

// NewFormValidatorTool builds the form-validator specialist and exposes it to
// the coordinator as a tool. The specialist owns the check_form_status tool.
func NewFormValidatorTool(ctx context.Context, chatModel model.ToolCallingChatModel, sessions *session.Manager) (tool.InvokableTool, error) {
	statusTool, err := tools.NewCheckFormStatusTool(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to create check_form_status tool: %w", err)
	}
	return newSubAgentTool(ctx, formValidatorName, formValidatorDescription,
		ValidatorInstruction(propform.NewForm()), chatModel, []tool.BaseTool{statusTool})
}

// newSubAgentTool wraps a react agent as an invokable tool. The calling
// context flows through unchanged, so the specialist's tools operate on the
// same session as the coordinator.
func newSubAgentTool(ctx context.Context, name, description, instruction string, chatModel model.ToolCallingChatModel, agentTools []tool.BaseTool) (tool.InvokableTool, error) {
	runner, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: agentTools,
		},
		MaxStep: maxSubAgentSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", name, err)
	}
	return utils.InferTool(name, description, func(ctx context.Context, req *DelegateRequest) (*DelegateResponse, error) {
		msg, err := runner.Generate(ctx, []*schema.Message{
			schema.SystemMessage(instruction),
			schema.UserMessage(req.Request),
		})
		if err != nil {
			return nil, fmt.Errorf("%s run failed: %w", name, err)
		}
		return &DelegateResponse{Content: msg.Content}, nil
	})
}
