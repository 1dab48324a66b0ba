package normalize

import (
	"go.uber.org/zap"
)

// BatchStatus is the canonical lifecycle state of a shipment batch.
type BatchStatus string

const (
	StatusInTransit BatchStatus = "InTransit"
	StatusDelivered BatchStatus = "Delivered"
	StatusRejected  BatchStatus = "Rejected"
	StatusUnknown   BatchStatus = "Unknown"
)

// Batch is the canonical view of one monitored shipment.
type Batch struct {
	BatchID                 string      `json:"batch_id"`
	BerryType               string      `json:"berry_type"`
	BatchStatus             BatchStatus `json:"batch_status"`
	QualityScore            float64     `json:"quality_score"`
	PredictedShelfLifeHours float64     `json:"predicted_shelf_life_hours"`
	StartTime               string      `json:"start_time"`
	EndTime                 string      `json:"end_time"`
	IsActive                bool        `json:"is_active"`
}

// batchShape tags the known backend encodings of a batch object. Detection is
// ranked: canonical snake_case beats camelCase beats a nested result
// envelope; anything else goes through the scavenging pass.
type batchShape int

const (
	batchShapeCanonical batchShape = iota
	batchShapeCamel
	batchShapeNested
	batchShapeScavenge
)

func detectBatchShape(m map[string]any) batchShape {
	if _, ok := m["batch_id"]; ok {
		return batchShapeCanonical
	}
	if _, ok := m["batchId"]; ok {
		return batchShapeCamel
	}
	if res, ok := m["result"].(map[string]any); ok {
		if res["status"] == "completed" {
			return batchShapeNested
		}
		if _, ok := res["batch_id"]; ok {
			return batchShapeNested
		}
		if _, ok := res["batchId"]; ok {
			return batchShapeNested
		}
	}
	return batchShapeScavenge
}

// NormalizeBatch converts any known batch payload shape into the canonical
// Batch. It never fails: unrecognized payloads degrade to defaulted fields.
func NormalizeBatch(m map[string]any) Batch {
	if m == nil {
		m = map[string]any{}
	}

	shape := detectBatchShape(m)
	if shape == batchShapeNested {
		if res, ok := m["result"].(map[string]any); ok {
			m = res
			shape = detectBatchShape(m)
		}
	}
	if shape == batchShapeScavenge {
		zap.L().Debug("batch payload matched no shape signature, scavenging fields")
	}

	b := Batch{
		BatchStatus: StatusUnknown,
		BerryType:   UnknownLabel,
	}

	if v, ok := id(m, "batch_id", "batchId"); ok {
		b.BatchID = v
	}
	if v, ok := str(m, "berry_type", "berryType"); ok && v != "" {
		b.BerryType = v
	}
	if v, ok := num(m, "quality_score", "qualityScore"); ok {
		b.QualityScore = v
	}
	if v, ok := num(m, "predicted_shelf_life_hours", "predictedShelfLifeHours", "predictedShelfLife"); ok {
		b.PredictedShelfLifeHours = v
	}
	b.StartTime = timeField(m, "start_time", "startTime")
	b.EndTime = timeField(m, "end_time", "endTime")

	status, hasStatus := str(m, "batch_status")
	active, hasActive := boolean(m, "is_active", "isActive")

	switch {
	case hasStatus:
		b.BatchStatus = parseStatus(status)
	case hasActive:
		// camelCase payloads carry only the activity flag
		if active {
			b.BatchStatus = StatusInTransit
		} else {
			b.BatchStatus = StatusDelivered
		}
	}

	// The status is authoritative over the activity flag when it carries a
	// known lifecycle state.
	switch b.BatchStatus {
	case StatusInTransit:
		b.IsActive = true
	case StatusDelivered, StatusRejected:
		b.IsActive = false
	default:
		if hasActive {
			b.IsActive = active
		} else {
			b.IsActive = b.EndTime == ""
		}
	}

	return b
}

func parseStatus(s string) BatchStatus {
	switch s {
	case string(StatusInTransit), string(StatusDelivered), string(StatusRejected):
		return BatchStatus(s)
	}
	return StatusUnknown
}
