// Package jsonutil coerces loosely-typed JSON values. Model responses do
// not always respect the requested types: strings arrive as numbers,
// booleans as strings.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleStringValue converts a raw JSON value to a string. Numbers and
// booleans are formatted; null and empty input yield "".
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleBoolValue converts a raw JSON value to a bool. Accepts native
// booleans, the strings "true"/"false"/"yes"/"no" in any case, and
// numbers (non-zero is true). Null and unrecognized input yield false.
func FlexibleBoolValue(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return boolVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		switch strings.ToLower(strings.TrimSpace(strVal)) {
		case "true", "yes":
			return true
		default:
			return false
		}
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal != 0
	}

	return false
}
