package vocab

import "maps"

// Data is the structured payload of a term: a JSON-like value made of
// strings, numbers, booleans, nil, []any and map[string]any.
type Data struct {
	value any
}

// NewData wraps a payload value. The value is deep-copied so later changes
// to the caller's maps or slices do not reach the term. A nil value, such as
// a JSON null, is no payload: NewData returns nil.
func NewData(value any) *Data {
	if value == nil {
		return nil
	}
	return &Data{value: cloneValue(value)}
}

// Value returns a deep copy of the payload value.
func (d *Data) Value() any {
	if d == nil {
		return nil
	}
	return cloneValue(d.value)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]string:
		return maps.Clone(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
