package patch

import (
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"

	"github.com/propform/propform"
)

// FromInitial diffs two forms into the operations that turn current into
// initial, skipping zero values so an almost-empty seed form produces an
// almost-empty patch.
func FromInitial(current, initial *propform.Form) ([]Operation, error) {
	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current form: %w", err)
	}

	initialJSON, err := sonic.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initial form: %w", err)
	}

	var currentMap map[string]any
	if err := sonic.Unmarshal(currentJSON, &currentMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current form: %w", err)
	}

	var initialMap map[string]any
	if err := sonic.Unmarshal(initialJSON, &initialMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initial form: %w", err)
	}

	patches := make([]Operation, 0)
	diffMaps("", currentMap, initialMap, &patches)
	return patches, nil
}

func diffMaps(prefix string, current, initial map[string]any, patches *[]Operation) {
	for key, initialValue := range initial {
		if initialValue == nil {
			continue
		}

		path := prefix + "/" + escapeJSONPointer(key)
		currentValue, existsInCurrent := current[key]

		if isZeroValue(initialValue) {
			continue
		}

		if initialMap, ok := initialValue.(map[string]any); ok {
			if currentMap, ok := currentValue.(map[string]any); ok {
				diffMaps(path, currentMap, initialMap, patches)
			} else {
				*patches = append(*patches, Operation{Op: OperationReplace, Path: path, Value: initialValue})
			}
			continue
		}

		if initialArray, ok := initialValue.([]any); ok {
			if !existsInCurrent || !reflect.DeepEqual(currentValue, initialValue) {
				if len(initialArray) > 0 {
					*patches = append(*patches, Operation{Op: OperationReplace, Path: path, Value: initialValue})
				}
			}
			continue
		}

		if !existsInCurrent {
			*patches = append(*patches, Operation{Op: OperationAdd, Path: path, Value: initialValue})
		} else if !reflect.DeepEqual(currentValue, initialValue) {
			*patches = append(*patches, Operation{Op: OperationReplace, Path: path, Value: initialValue})
		}
	}
}

func escapeJSONPointer(token string) string {
	result := ""
	for _, ch := range token {
		switch ch {
		case '~':
			result += "~0"
		case '/':
			result += "~1"
		default:
			result += string(ch)
		}
	}
	return result
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}

	switch val := v.(type) {
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
