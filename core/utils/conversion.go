package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts various types to int using explicit type switching.
// Metadata records in the wild carry page/year/number as JSON numbers or
// strings interchangeably; every scalar goes through here before comparison.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(v))
		return i
	case []byte:
		i, _ := strconv.Atoi(string(v))
		return i
	default:
		s := fmt.Sprintf("%v", v)
		i, _ := strconv.Atoi(s)
		return i
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// the trailing ".0" so "12" and 12 compare equal.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, float64, float32:
		return ToInt(v) == 1
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	case []byte:
		return ToBool(string(v))
	default:
		return false
	}
}
