package normalize

import (
	"go.uber.org/zap"
)

// TemperatureStats is the aggregate telemetry block of a batch report.
// BreachPercentage stays display text; the backend emits it pre-formatted in
// some versions and as a bare number in others.
type TemperatureStats struct {
	ReadingCount     int       `json:"reading_count"`
	BreachCount      int       `json:"breach_count"`
	BreachPercentage string    `json:"breach_percentage"`
	MinTemperature   float64   `json:"min_temperature"`
	MaxTemperature   float64   `json:"max_temperature"`
	Readings         []Reading `json:"readings"`
}

// BatchReport is the canonical aggregate view of a batch plus its telemetry.
type BatchReport struct {
	BatchDetails     *Batch            `json:"batch_details,omitempty"`
	TemperatureStats *TemperatureStats `json:"temperature_stats,omitempty"`
	Predictions      []map[string]any  `json:"predictions,omitempty"`
}

type reportShape int

const (
	reportShapeEnvelope reportShape = iota // {success, report:{...}}
	reportShapeCamel                       // {batchDetails, temperatureStats}
	reportShapeCanonical
	reportShapeNested // {result:{batch_details, ...}}
	reportShapeScavenge
)

func detectReportShape(m map[string]any) reportShape {
	if _, ok := m["report"].(map[string]any); ok {
		return reportShapeEnvelope
	}
	if _, ok := m["batch_details"]; ok {
		return reportShapeCanonical
	}
	if _, ok := m["temperature_stats"]; ok {
		return reportShapeCanonical
	}
	if _, ok := m["batchDetails"]; ok {
		return reportShapeCamel
	}
	if _, ok := m["temperatureStats"]; ok {
		return reportShapeCamel
	}
	if res, ok := m["result"].(map[string]any); ok {
		if _, has := res["batch_details"]; has {
			return reportShapeNested
		}
		if res["status"] == "completed" {
			return reportShapeNested
		}
	}
	return reportShapeScavenge
}

// NormalizeReport converts any known batch-report payload shape into the
// canonical BatchReport. When no shape matches, it degrades to a report that
// carries only lastKnown (the most recently selected batch, possibly nil) so
// a partial-data consumer can still render.
func NormalizeReport(m map[string]any, lastKnown *Batch) BatchReport {
	if m == nil {
		m = map[string]any{}
	}

	switch detectReportShape(m) {
	case reportShapeEnvelope:
		return normalizeEnvelopeReport(m)
	case reportShapeCamel:
		return normalizeCamelReport(m)
	case reportShapeCanonical:
		return normalizeCanonicalReport(m)
	case reportShapeNested:
		res := m["result"].(map[string]any)
		return NormalizeReport(res, lastKnown)
	}

	zap.L().Warn("batch report payload matched no shape signature, using last known batch")
	return BatchReport{BatchDetails: lastKnown}
}

// normalizeEnvelopeReport handles {success, batch_id, report:{batch_details?,
// reading_count, temperature_history}}.
func normalizeEnvelopeReport(m map[string]any) BatchReport {
	report, _ := at(m, "report")

	var details Batch
	if nested, ok := at(report, "batch_details"); ok {
		details = NormalizeBatch(nested)
	} else {
		seed := map[string]any{}
		if batchID, ok := id(m, "batch_id", "batchId"); ok {
			seed["batch_id"] = batchID
		}
		details = NormalizeBatch(seed)
	}

	stats := TemperatureStats{
		ReadingCount: count(report, "reading_count", "readingCount"),
		BreachCount:  count(report, "breach_count", "breachCount"),
		Readings:     LocateReadings(m),
	}
	if v, ok := report["breach_percentage"]; ok {
		stats.BreachPercentage = percentage(v)
	}
	if v, ok := num(report, "min_temperature", "minTemperature"); ok {
		stats.MinTemperature = v
	}
	if v, ok := num(report, "max_temperature", "maxTemperature"); ok {
		stats.MaxTemperature = v
	}

	return BatchReport{
		BatchDetails:     &details,
		TemperatureStats: &stats,
		Predictions:      predictions(report, m),
	}
}

func normalizeCamelReport(m map[string]any) BatchReport {
	out := BatchReport{Predictions: predictions(m)}

	if nested, ok := at(m, "batchDetails"); ok {
		details := NormalizeBatch(nested)
		out.BatchDetails = &details
	}
	if nested, ok := at(m, "temperatureStats"); ok {
		out.TemperatureStats = normalizeStats(nested)
	}
	return out
}

func normalizeCanonicalReport(m map[string]any) BatchReport {
	out := BatchReport{Predictions: predictions(m)}

	if nested, ok := at(m, "batch_details"); ok {
		details := NormalizeBatch(nested)
		out.BatchDetails = &details
	}
	if nested, ok := at(m, "temperature_stats"); ok {
		out.TemperatureStats = normalizeStats(nested)
	}
	return out
}

func normalizeStats(m map[string]any) *TemperatureStats {
	stats := &TemperatureStats{
		ReadingCount: count(m, "reading_count", "readingCount"),
		BreachCount:  count(m, "breach_count", "breachCount"),
		Readings:     []Reading{},
	}
	if v, ok := firstPresent(m, "breach_percentage", "breachPercentage"); ok {
		stats.BreachPercentage = percentage(v)
	}
	if v, ok := num(m, "min_temperature", "minTemperature"); ok {
		stats.MinTemperature = v
	}
	if v, ok := num(m, "max_temperature", "maxTemperature"); ok {
		stats.MaxTemperature = v
	}
	if raw, ok := array(m, "readings"); ok {
		stats.Readings = normalizeReadings(raw)
	}
	return stats
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// predictions collects the ordered prediction sequence from the first source
// object carrying one.
func predictions(sources ...map[string]any) []map[string]any {
	for _, src := range sources {
		if src == nil {
			continue
		}
		raw, ok := array(src, "predictions")
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, item := range raw {
			if entry, ok := item.(map[string]any); ok {
				out = append(out, entry)
			}
		}
		return out
	}
	return nil
}
