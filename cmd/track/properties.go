package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poki/tracking/tracking"
)

// parseProperties turns key=value arguments into properties. Integers,
// floats and booleans are sent as such, anything else as a string.
func parseProperties(pairs []string) (tracking.Properties, error) {
	props := make(tracking.Properties, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q, expected key=value", pair)
		}
		props[key] = parseValue(value)
	}
	return props, nil
}

func parseValue(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
