package secrets

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
)

// ExtractKey returns the field key of a JSON object secret already fetched
// with GetSecret, so several fields can be read from one version of it.
func ExtractKey(secret, key string) (string, error) {
	return extractKey(secret, key)
}

// extractKey returns the top-level field key of the JSON object in secret,
// converted to text. Strings are unescaped, other scalars keep their literal
// text and nested objects or arrays are returned as raw JSON.
func extractKey(secret, key string) (string, error) {
	data := []byte(secret)
	if !json.Valid(data) {
		return "", ErrParse
	}

	var (
		found bool
		value []byte
		vtype jsonparser.ValueType
	)
	// ObjectEach hands over keys already unescaped.
	err := jsonparser.ObjectEach(data, func(k []byte, v []byte, t jsonparser.ValueType, _ int) error {
		// Duplicate keys resolve to the last occurrence.
		if string(k) == key {
			found, value, vtype = true, v, t
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}

	switch vtype {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
		return s, nil
	case jsonparser.Null:
		return "null", nil
	default:
		return string(value), nil
	}
}
