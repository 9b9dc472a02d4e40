package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Well-known registered claim names read literally by the engine.
const (
	ClaimIssuedAt = "iat"
	ClaimExpiry   = "exp"
)

// Claims is the decoded claim set of a verified token. Values arrive as
// whatever the token codec produced (JSON numbers decode as float64 or
// json.Number depending on the parser), so extraction helpers normalise.
type Claims map[string]any

// StringValue returns the claim rendered as a key segment. Numeric claims
// are formatted without a decimal point so that an issued-at of 1000 always
// yields the segment "1000" regardless of the decoder in use.
func (c Claims) StringValue(name string) (string, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return "", false
	}

	switch value := v.(type) {
	case string:
		if value == "" {
			return "", false
		}
		return value, true
	case json.Number:
		return value.String(), true
	case float64:
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10), true
		}
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case float32:
		f := float64(value)
		if f == math.Trunc(f) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case int:
		return strconv.FormatInt(int64(value), 10), true
	case int32:
		return strconv.FormatInt(int64(value), 10), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case uint64:
		return strconv.FormatUint(value, 10), true
	default:
		return "", false
	}
}

// Int64Value returns the claim as whole seconds. Used for the iat and exp
// comparisons, which the engine always performs on integral timestamps.
func (c Claims) Int64Value(name string) (int64, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return 0, false
	}

	switch value := v.(type) {
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			if f, ferr := value.Float64(); ferr == nil {
				return int64(f), true
			}
			return 0, false
		}
		return parsed, true
	case float64:
		return int64(value), true
	case float32:
		return int64(value), true
	case int:
		return int64(value), true
	case int32:
		return int64(value), true
	case int64:
		return value, true
	case uint64:
		return int64(value), true
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
