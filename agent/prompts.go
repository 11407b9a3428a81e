package agent

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/propform/propform"
)

const coordinatorInstructionTemplate = `You are the coordinator of a real estate assistant helping users find commercial properties.

Your primary goal is to collect the following required information from the user:
%s

Additionally, you should collect any other relevant property preferences the user might have, like location preferences (downtown, suburban), amenities (parking, security), or time frame.

Guidelines:
1. Be conversational and friendly while guiding the user.
2. ONLY when the conversation needs it, acknowledge the information you've already collected. You can provide that information to the user if asked.
3. Ask for missing information only if the conversation flow enables it, and focus on one missing piece of information at a time.
4. If the user provides new or updated information, delegate to the '%s' tool to update your records. Hand over the user's message so that ALL fields it mentions get extracted, not just one at a time.
5. Use the '%s' tool to check which fields have been provided and which are missing before asking for more.
6. When all required fields are collected, acknowledge this, provide a summary, and ask if the user would like to add any additional details or preferences.
7. IMPORTANT: Be concise and avoid repetition. Do not repeat the same questions in a single response.`

// CoordinatorInstruction renders the system instruction from the live field
// definitions, so prompt and form model can never drift apart.
func CoordinatorInstruction(form *propform.Form) string {
	lines := make([]string, 0, 4)
	for _, name := range propform.RequiredFieldNames() {
		field := form.RequiredField(name)
		lines = append(lines, fmt.Sprintf("- %s: %s", propform.DisplayName(name), field.Description))
	}
	return fmt.Sprintf(coordinatorInstructionTemplate, strings.Join(lines, "\n"), fieldExtractorName, formValidatorName)
}

// FormatSchemaContext renders the serialized form shape so the model knows
// the state it is filling.
func FormatSchemaContext(schemaJSON string) string {
	return "# Form state schema:\n```json\n" + schemaJSON + "\n```"
}

const extractorInstructionTemplate = `You are a specialized agent for extracting real estate property requirements from user messages.

Your task is to identify and extract these specific fields from the user's messages:
%s

You should also extract any additional property preferences the user mentions.

For each field you identify in the user's message:
1. Determine the field name
2. Extract the exact value provided by the user
3. Decide if it belongs to one of the required fields or should be an additional field
4. Use the 'extract_field' tool to save the field to the session state

Be thorough and extract ALL fields mentioned in EACH message, not just one field at a time.
Do not extract the same field multiple times if it hasn't changed.`

// ExtractorInstruction is the dedicated field-extraction prompt, including
// example phrasings for each required field.
func ExtractorInstruction(form *propform.Form) string {
	lines := make([]string, 0, 4)
	for _, name := range propform.RequiredFieldNames() {
		field := form.RequiredField(name)
		examples := make([]string, 0, len(field.Examples))
		for _, example := range field.Examples {
			examples = append(examples, fmt.Sprintf("%q", example))
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (Examples: %s).", name, field.Description, strings.Join(examples, ", ")))
	}
	return fmt.Sprintf(extractorInstructionTemplate, strings.Join(lines, "\n"))
}

const validatorInstructionTemplate = `You are a real estate assistant.
Your Goal is to validate if all required information has been collected.

The following fields are required:
%s

Your responsibilities:
1. Check which fields have been provided and which are missing.
2. If fields are missing, ask for them in a natural, conversational way.
3. When all required fields are collected, acknowledge this and provide a summary.
4. If the user provides new or additional information, update your understanding.

Always use the 'check_form_status' tool to get the current state of the form,
including which fields are missing.

IMPORTANT: Be concise and avoid repetition. If you've already asked for specific information,
don't repeat the same questions in the same message. Ask only for the missing fields that
you haven't explicitly asked for yet.

If all required information has been collected, thank the user and:
1. Summarize all the information you've gathered.
2. Ask if they would like to provide any additional details or preferences.`

// ValidatorInstruction is the completeness-checking prompt for a dedicated
// validation pass.
func ValidatorInstruction(form *propform.Form) string {
	lines := make([]string, 0, 4)
	for _, name := range propform.RequiredFieldNames() {
		field := form.RequiredField(name)
		lines = append(lines, fmt.Sprintf("- %s: %s", propform.DisplayName(name), field.Description))
	}
	return fmt.Sprintf(validatorInstructionTemplate, strings.Join(lines, "\n"))
}

// FormatStatusContext renders the per-turn form status block appended to the
// system prompt: missing required fields and rejected values as markdown
// tables.
func FormatStatusContext(form *propform.Form) string {
	spec := propform.SearchSpec{}
	var sections []string
	if s := formatMissingFieldsSection(spec.MissingFacts(form)); s != "" {
		sections = append(sections, s)
	}
	if s := formatValidationIssuesSection(spec.ValidateFacts(form)); s != "" {
		sections = append(sections, s)
	}
	if len(sections) == 0 {
		return "# Form status:\nAll required fields are complete."
	}
	return strings.Join(sections, "\n\n")
}

func formatMissingFieldsSection(fields []propform.FieldInfo) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Missing required fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Name", "Description")
	for _, field := range fields {
		_ = table.Append(field.DisplayName, field.Name, field.Description)
	}
	_ = table.Render()
	return buf.String()
}

func formatValidationIssuesSection(issues []propform.ValidationIssue) string {
	if len(issues) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Rejected values:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value", "Error")
	for _, issue := range issues {
		_ = table.Append(issue.Name, issue.Value, issue.Message)
	}
	_ = table.Render()
	return buf.String()
}
