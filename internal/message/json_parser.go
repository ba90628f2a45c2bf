package message

import (
	"encoding/json"
	"fmt"
)

// ParseDynamicJSON parses JSON data from a byte slice into a DynamicMessage map.
// It returns ErrJSONUnmarshalFailed (wrapping the original error) if unmarshalling fails.
func ParseDynamicJSON(data []byte) (DynamicMessage, error) {
	var msg DynamicMessage

	err := json.Unmarshal(data, &msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return msg, nil
}

// ParseFix extracts a location fix from a JSON object. Both the long
// ("latitude") and short ("lat") key spellings are accepted.
func ParseFix(data []byte) (lat, lon float64, err error) {
	msg, err := ParseDynamicJSON(data)
	if err != nil {
		return 0, 0, err
	}

	lat, ok := msg.GetFloat64("latitude", "lat")
	if !ok {
		return 0, 0, fmt.Errorf("%w: latitude (got %s)", ErrMissingField, msg.GetFieldSnippet("latitude", 32))
	}
	lon, ok = msg.GetFloat64("longitude", "lon", "lng")
	if !ok {
		return 0, 0, fmt.Errorf("%w: longitude (got %s)", ErrMissingField, msg.GetFieldSnippet("longitude", 32))
	}
	return lat, lon, nil
}
