package codec

import (
	"encoding/json"
	"fmt"
)

// The textual form of a raw byte sequence. Chosen for compatibility with the
// multi-device transport's credential dumps, which tag binary fields as
// {"type":"Buffer","data":[...]}.
const bufferTag = "Buffer"

// WireEncoder lets a domain value supply its own canonical wire-format
// conversion. It takes precedence over generic field-walking.
type WireEncoder interface {
	EncodeWire() any
}

// Serialize recursively converts a binary-bearing value into a JSON-safe
// textual representation. Byte sequences become tagged objects, arrays map
// element-wise, and plain key-value containers map field-wise.
func Serialize(v any) (string, error) {
	tree, err := encodeValue(v)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("failed to marshal encoded value: %w", err)
	}
	return string(data), nil
}

// Deserialize is the inverse of Serialize: it reconstructs byte sequences
// from their tagged textual form. Deserialize(Serialize(x)) == x for any
// value built from byte sequences nested inside arrays and maps.
func Deserialize(blob string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(blob), &tree); err != nil {
		return nil, fmt.Errorf("invalid stored blob: %w", err)
	}
	return decodeValue(tree)
}

func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case WireEncoder:
		return encodeValue(val.EncodeWire())
	case []byte:
		data := make([]any, len(val))
		for i, b := range val {
			data[i] = float64(b)
		}
		return map[string]any{"type": bufferTag, "data": data}, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			enc, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			enc, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	case string:
		return val, nil
	case bool:
		return val, nil
	case float64:
		return val, nil
	// JSON carries one number type; normalize integers up front so the
	// round-trip contract holds after a marshal/unmarshal cycle.
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func decodeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if isBufferObject(val) {
			return decodeBuffer(val)
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			dec, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = dec
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			dec, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	default:
		return v, nil
	}
}

func isBufferObject(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	tag, ok := m["type"].(string)
	if !ok || tag != bufferTag {
		return false
	}
	_, hasData := m["data"]
	return hasData
}

func decodeBuffer(m map[string]any) ([]byte, error) {
	raw, ok := m["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("buffer object has non-array data field: %T", m["data"])
	}
	out := make([]byte, len(raw))
	for i, item := range raw {
		n, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("buffer data[%d] is not a number: %T", i, item)
		}
		if n < 0 || n > 255 || n != float64(byte(n)) {
			return nil, fmt.Errorf("buffer data[%d] out of byte range: %v", i, n)
		}
		out[i] = byte(n)
	}
	return out, nil
}
