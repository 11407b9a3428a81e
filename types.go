package propform

type FieldInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type ValidationIssue struct {
	Name    string `json:"name"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}
