// Package normalize converts the heterogeneous JSON shapes returned by the
// agent service into one canonical struct per domain object. Every function
// here is total: any well-formed JSON object (including an empty one)
// produces a fully populated canonical value with documented defaults, and
// normalizing an already-canonical value is a no-op.
//
// Field precedence is uniform across the package: canonical snake_case keys
// win over their camelCase twins, so running a normalizer over its own output
// can never corrupt it.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// UnknownLabel is the default for display strings the backend omitted.
const UnknownLabel = "Unknown"

// timeLayout is the rendering format for epoch timestamps.
const timeLayout = "2006-01-02 15:04:05"

// now is stubbed in tests that assert defaulted timestamps.
var now = time.Now

// str returns the first present string value among keys. Non-string scalars
// are rendered with strconv so numeric ids survive as display text.
func str(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t, true
		case float64:
			return formatNumber(t), true
		case bool:
			return strconv.FormatBool(t), true
		}
	}
	return "", false
}

// num returns the first present numeric value among keys. Numeric strings
// ("12.5", "80%") are parsed so percentage and score fields survive both
// encodings.
func num(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t, true
		case int:
			return float64(t), true
		case string:
			s := strings.TrimSuffix(strings.TrimSpace(t), "%")
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// boolean returns the first present bool among keys.
func boolean(m map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v, true
		}
	}
	return false, false
}

// object returns the first present nested object among keys.
func object(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v, true
		}
	}
	return nil, false
}

// array returns the first present non-empty array among keys.
func array(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok && len(v) > 0 {
			return v, true
		}
	}
	return nil, false
}

// at walks a dotted object path, returning the final object.
func at(m map[string]any, path ...string) (map[string]any, bool) {
	cur := m
	for _, k := range path {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// id coerces an identifier that may arrive as a string or a JSON number into
// its canonical string form.
func id(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t, true
			}
		case float64:
			return formatNumber(t), true
		}
	}
	return "", false
}

// formatNumber renders a JSON number without a spurious fraction when it is
// integral (ids and counters decode as float64).
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// count reads an integer counter, defaulting to 0.
func count(m map[string]any, keys ...string) int {
	if f, ok := num(m, keys...); ok {
		return int(f)
	}
	return 0
}

// renderTime accepts the two timestamp encodings the backend emits (epoch
// seconds as a number, or an already-renderable string) and returns a
// display string. Strings pass through untouched so rendering is idempotent.
func renderTime(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return time.Unix(int64(t), 0).Format(timeLayout)
	}
	return ""
}

// timeField reads and renders a timestamp from the first present key.
func timeField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return renderTime(v)
		}
	}
	return ""
}

// percentage renders a numeric or string percentage as display text with a
// trailing percent sign. Already-formatted strings pass through.
func percentage(v any) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return ""
		}
		if strings.HasSuffix(t, "%") {
			return t
		}
		return t + "%"
	case float64:
		return formatNumber(t) + "%"
	}
	return ""
}
