package variant

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromAny converts a generic Go value — the shape produced by
// encoding/json, gopkg.in/yaml.v3, or any map[string]any/[]any tree — into
// a Value. Unrepresentable types (channels, funcs, complex numbers) return
// an error rather than silently dropping data.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Empty(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Bytes(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return Empty(), fmt.Errorf("array[%d]: %w", i, err)
			}
			items[i] = val
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return Empty(), fmt.Errorf("object[%q]: %w", k, err)
			}
			fields[k] = val
		}
		return Object(fields), nil
	default:
		return Empty(), fmt.Errorf("variant: unrepresentable type %T", v)
	}
}

// ToAny converts a Value back to the plain map[string]any/[]any/scalar tree
// that encoding/json and yaml.v3 both understand.
func ToAny(v Value) any {
	switch v.kind {
	case KindEmpty:
		return nil
	case KindNumber:
		n, _ := v.Number()
		return n
	case KindBool:
		b, _ := v.Bool()
		return b
	case KindString:
		s, _ := v.String()
		return s
	case KindBytes:
		b, _ := v.Bytes()
		return b
	case KindArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = ToAny(item)
		}
		return out
	case KindObject:
		obj, _ := v.Object()
		out := make(map[string]any, len(obj))
		for k, item := range obj {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON serializes v using encoding/json.
func MarshalJSON(v Value) ([]byte, error) {
	return json.Marshal(ToAny(v))
}

// UnmarshalJSON deserializes JSON data into a Value.
func UnmarshalJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Empty(), fmt.Errorf("variant: unmarshal json: %w", err)
	}
	return FromAny(raw)
}

// MarshalYAML serializes v using gopkg.in/yaml.v3, the same library the
// teacher repo uses for its own workflow/config documents.
func MarshalYAML(v Value) ([]byte, error) {
	return yaml.Marshal(ToAny(v))
}

// UnmarshalYAML deserializes YAML data into a Value.
func UnmarshalYAML(data []byte) (Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Empty(), fmt.Errorf("variant: unmarshal yaml: %w", err)
	}
	return FromAny(normalizeYAML(raw))
}

// normalizeYAML recursively converts yaml.v3's map[string]interface{} (and
// occasionally map[interface{}]interface{} from older documents) into the
// map[string]any shape FromAny expects.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
