// Package patch seeds a property form from values that are already known
// before the conversation starts, expressed as RFC6902 operations against the
// serialized form.
package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/propform/propform"
)

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// ApplyRFC6902 applies ops to the serialized form and decodes the result back.
// A patch that produces something outside the form shape is rejected.
func ApplyRFC6902(form *propform.Form, ops []Operation) (*propform.Form, error) {
	if len(ops) == 0 {
		return form, nil
	}

	currentJSON, err := sonic.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current form: %w", err)
	}

	ops = FixOperations(currentJSON, ops)

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := patch.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	result := &propform.Form{}
	if err := sonic.Unmarshal(modifiedJSON, result); err != nil {
		return nil, fmt.Errorf("patch would leave the form in an invalid shape: %w", err)
	}

	return result, nil
}

// FixOperations downgrades replace to add for paths that do not exist yet and
// drops removes for paths that are already gone, so a seed document can be
// applied to both fresh and partially filled forms.
func FixOperations(currentJSON []byte, ops []Operation) []Operation {
	var doc any
	if err := sonic.Unmarshal(currentJSON, &doc); err != nil {
		return ops
	}

	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !pathExists(doc, op.Path) {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if pathExists(doc, op.Path) {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}

	return fixed
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}

	tokens := strings.Split(path[1:], "/")
	cur := doc
	for _, token := range tokens {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			value, ok := node[token]
			if !ok {
				return false
			}
			cur = value
		case []any:
			index, err := strconv.Atoi(token)
			if err != nil || index < 0 || index >= len(node) {
				return false
			}
			cur = node[index]
		default:
			return false
		}
	}

	return true
}
