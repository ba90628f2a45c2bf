package message

import (
	"fmt"
)

// DynamicMessage represents a message with arbitrary key-value pairs,
// typically parsed from JSON.
type DynamicMessage map[string]interface{}

// GetFloat64 retrieves a float64 value for the first of keys that is present.
// Handles missing keys, null values, and integer-to-float conversion.
func (dm DynamicMessage) GetFloat64(keys ...string) (float64, bool) {
	for _, key := range keys {
		val, exists := dm[key]
		if !exists || val == nil {
			continue
		}

		switch v := val.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		// Present but not numeric; later aliases are not consulted.
		return 0, false
	}
	return 0, false
}

// GetFieldSnippet returns a string snippet of a field's value, useful for logging.
// It handles missing keys and truncates long values.
func (dm DynamicMessage) GetFieldSnippet(fieldName string, maxLength int) string {
	value, exists := dm[fieldName]
	if !exists {
		return "<missing>"
	}

	strValue := fmt.Sprintf("%v", value)
	if maxLength <= 0 {
		return "..."
	}
	if len(strValue) > maxLength {
		return strValue[:maxLength] + "..."
	}
	return strValue
}

// Snippet truncates a raw payload for logging.
func Snippet(data []byte, maxLength int) string {
	if len(data) <= maxLength {
		return string(data)
	}
	return string(data[:maxLength]) + "..."
}
