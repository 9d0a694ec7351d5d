package common

import (
	"fmt"
	"math"
	"time"
)

// GetStringArg returns args[name] as a string. A missing or null argument
// yields "", any other non-string value is an error.
func GetStringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

// GetStringArrayArg parses an optional array of strings. A single string is
// accepted as a one-element array. Items are passed through unchanged;
// checking their content is up to the caller.
func GetStringArrayArg(args map[string]interface{}, name string) ([]string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case []interface{}:
		result := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			result = append(result, s)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}
}

// GetTimeoutArg reads a timeout given in seconds. A missing argument yields
// def. Zero, negative and non-finite values are errors.
func GetTimeoutArg(args map[string]interface{}, name string, def time.Duration) (time.Duration, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	var seconds float64
	switch n := v.(type) {
	case float64:
		seconds = n
	case int:
		seconds = float64(n)
	case int64:
		seconds = float64(n)
	default:
		return 0, fmt.Errorf("%s must be a number of seconds", name)
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of seconds", name)
	}
	// Guard the conversion against overflow.
	if seconds > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("%s is too large", name)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
