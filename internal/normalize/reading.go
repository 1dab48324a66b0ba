package normalize

// Safe temperature band for berry transport, °C. Readings strictly outside
// the band derive a breach when the backend did not flag one.
const (
	SafeBandMin = 0.0
	SafeBandMax = 4.0
)

// Reading is the canonical view of one sampled temperature measurement. The
// breach flag keeps the backend's camelCase key: that is the name the agent
// emits inside reading arrays and the one consumers already bind to.
type Reading struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Location    string  `json:"location"`
	IsBreached  bool    `json:"isBreached"`
}

// readingPaths are the known nesting points for the reading array, in
// ranked order. The first path holding a non-empty array wins.
var readingPaths = [][]string{
	{"temperature_stats"},
	{"batch_details", "temperature_stats"},
	{"report", "temperature_stats"},
}

// LocateReadings finds the temperature reading array inside a batch report
// payload, trying each known nesting in order, and normalizes every entry.
// A payload with no readings yields an empty slice, never nil errors.
func LocateReadings(m map[string]any) []Reading {
	if m == nil {
		return []Reading{}
	}

	for _, path := range readingPaths {
		stats, ok := at(m, path...)
		if !ok {
			continue
		}
		if raw, ok := array(stats, "readings"); ok {
			return normalizeReadings(raw)
		}
	}

	// Legacy envelope: the history lives directly under report.
	if report, ok := at(m, "report"); ok {
		if raw, ok := array(report, "temperature_history"); ok {
			return normalizeReadings(raw)
		}
	}

	return []Reading{}
}

func normalizeReadings(raw []any) []Reading {
	out := make([]Reading, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, NormalizeReading(entry))
	}
	return out
}

// NormalizeReading coerces one reading into canonical form. An explicit
// breach flag from the backend always wins over band derivation, including
// an explicit false for an out-of-band temperature.
func NormalizeReading(m map[string]any) Reading {
	r := Reading{Location: UnknownLabel}

	if ts := timeField(m, "timestamp"); ts != "" {
		r.Timestamp = ts
	} else {
		r.Timestamp = now().Format(timeLayout)
	}
	if v, ok := num(m, "temperature"); ok {
		r.Temperature = v
	}
	if v, ok := str(m, "location"); ok && v != "" {
		r.Location = v
	}

	if flagged, ok := boolean(m, "isBreached", "is_breached"); ok {
		r.IsBreached = flagged
	} else {
		r.IsBreached = r.Temperature < SafeBandMin || r.Temperature > SafeBandMax
	}

	return r
}
