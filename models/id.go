package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeID coerces a listing identifier to its canonical string form.
// The marketplace API returns ids as JSON numbers while generated records
// carry them as strings; every join in the pipeline goes through this
// function so 12345, "12345" and 12345.0 all compare equal.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return trimFloatSuffix(strings.TrimSpace(id))
	case json.Number:
		return trimFloatSuffix(id.String())
	case float64:
		return floatID(id)
	case float32:
		return floatID(float64(id))
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func floatID(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// trimFloatSuffix strips a redundant ".0" tail left behind when a numeric
// id travelled through a float representation.
func trimFloatSuffix(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return s
	}
	frac := s[dot+1:]
	if frac == "" || strings.Trim(frac, "0") != "" {
		return s
	}
	if _, err := strconv.ParseInt(s[:dot], 10, 64); err != nil {
		return s
	}
	return s[:dot]
}
