package normalize

import "strings"

// Action is the fixed palette a free-text recommended action maps onto.
type Action string

const (
	ActionNone     Action = "no-action"
	ActionAlert    Action = "alert"
	ActionExpedite Action = "expedite"
	ActionReroute  Action = "reroute"
	ActionReject   Action = "reject"
	ActionUnknown  Action = "unknown"
)

// Color returns the display color associated with an action category.
func (a Action) Color() string {
	switch a {
	case ActionNone:
		return "green"
	case ActionAlert:
		return "blue"
	case ActionExpedite:
		return "orange"
	case ActionReroute:
		return "yellow"
	case ActionReject:
		return "red"
	}
	return "gray"
}

// ClassifyAction maps backend free text onto the action palette.
func ClassifyAction(text string) Action {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case s == "":
		return ActionUnknown
	case strings.Contains(s, "no action") || strings.Contains(s, "proceed"):
		return ActionNone
	case strings.Contains(s, "alert") || strings.Contains(s, "monitor"):
		return ActionAlert
	case strings.Contains(s, "expedite"):
		return ActionExpedite
	case strings.Contains(s, "reroute"):
		return ActionReroute
	case strings.Contains(s, "reject") || strings.Contains(s, "discard"):
		return ActionReject
	}
	return ActionUnknown
}

// QualityAssessment is the canonical quality scoring for a batch at a point
// in time. It is recomputed on every call and never cached.
type QualityAssessment struct {
	BatchID             string  `json:"batch_id"`
	BerryType           string  `json:"berry_type"`
	QualityScore        float64 `json:"quality_score"`
	ShelfLifeHours      float64 `json:"shelf_life_hours"`
	TemperatureReadings int     `json:"temperature_readings"`
	BreachCount         int     `json:"breach_count"`
	BreachPercentage    float64 `json:"breach_percentage"`
	RecommendedAction   string  `json:"recommended_action"`
	Action              Action  `json:"action"`
	ActionDescription   string  `json:"action_description"`
	Timestamp           string  `json:"timestamp"`
}

// NormalizeQuality converts a quality-assessment payload into canonical form.
func NormalizeQuality(m map[string]any) QualityAssessment {
	if m == nil {
		m = map[string]any{}
	}
	if res, ok := m["result"].(map[string]any); ok {
		m = res
	}

	q := QualityAssessment{BerryType: UnknownLabel}
	if v, ok := id(m, "batch_id", "batchId"); ok {
		q.BatchID = v
	}
	if v, ok := str(m, "berry_type", "berryType"); ok && v != "" {
		q.BerryType = v
	}
	if v, ok := num(m, "quality_score", "qualityScore"); ok {
		q.QualityScore = v
	}
	if v, ok := num(m, "shelf_life_hours", "shelfLifeHours", "predicted_shelf_life_hours"); ok {
		q.ShelfLifeHours = v
	}
	q.TemperatureReadings = count(m, "temperature_readings", "temperatureReadings")
	q.BreachCount = count(m, "breach_count", "breachCount")
	if v, ok := num(m, "breach_percentage", "breachPercentage"); ok {
		q.BreachPercentage = v
	}
	if v, ok := str(m, "recommended_action", "recommendedAction"); ok {
		q.RecommendedAction = v
	}
	q.Action = ClassifyAction(q.RecommendedAction)
	if v, ok := str(m, "action_description", "actionDescription"); ok {
		q.ActionDescription = v
	}
	q.Timestamp = timeField(m, "timestamp")

	return q
}

// ScoreCategory is the display bucket for a 0-100 quality score.
type ScoreCategory struct {
	Category string `json:"category"`
	Color    string `json:"color"`
}

// CategorizeScore buckets a quality score for display. known is false when
// the backend supplied no score.
func CategorizeScore(score float64, known bool) ScoreCategory {
	switch {
	case !known:
		return ScoreCategory{Category: UnknownLabel, Color: "gray"}
	case score >= 90:
		return ScoreCategory{Category: "Excellent", Color: "green"}
	case score >= 80:
		return ScoreCategory{Category: "Good", Color: "teal"}
	case score >= 70:
		return ScoreCategory{Category: "Fair", Color: "yellow"}
	case score >= 60:
		return ScoreCategory{Category: "Poor", Color: "orange"}
	}
	return ScoreCategory{Category: "Critical", Color: "red"}
}

// Recommendation is one suggested handling step for a batch.
type Recommendation struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Action      string `json:"action"`
	Timestamp   string `json:"timestamp,omitempty"`
	BatchID     string `json:"batch_id,omitempty"`
}

// NormalizeRecommendations extracts the recommendation list from any of the
// known payload layouts: a recommendations array, a recommended_actions array
// or scalar, or a bare action_description.
func NormalizeRecommendations(m map[string]any) []Recommendation {
	if m == nil {
		return nil
	}
	if res, ok := m["result"].(map[string]any); ok {
		m = res
	}

	if raw, ok := array(m, "recommendations"); ok {
		out := make([]Recommendation, 0, len(raw))
		for _, item := range raw {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, normalizeRecommendation(entry))
		}
		return out
	}

	if raw, ok := m["recommended_actions"]; ok && raw != nil {
		if list, ok := raw.([]any); ok {
			out := make([]Recommendation, 0, len(list))
			for _, item := range list {
				switch entry := item.(type) {
				case map[string]any:
					out = append(out, normalizeRecommendation(entry))
				case string:
					out = append(out, Recommendation{
						Description: entry,
						Priority:    "medium",
						Action:      "Monitor",
					})
				}
			}
			return out
		}
		if text, ok := raw.(string); ok {
			return []Recommendation{scalarRecommendation(m, text)}
		}
	}

	if text, ok := str(m, "action_description"); ok && text != "" {
		rec := scalarRecommendation(m, text)
		if action, ok := str(m, "recommended_action"); ok && action != "" {
			rec.Action = action
		} else {
			rec.Action = "No specific action"
		}
		return []Recommendation{rec}
	}

	return nil
}

func scalarRecommendation(m map[string]any, text string) Recommendation {
	rec := Recommendation{Description: text, Priority: "medium", Action: "Monitor"}
	if p, ok := str(m, "priority"); ok && p != "" {
		rec.Priority = p
	}
	if a, ok := str(m, "action"); ok && a != "" {
		rec.Action = a
	}
	return rec
}

func normalizeRecommendation(m map[string]any) Recommendation {
	rec := Recommendation{Priority: "medium"}
	if v, ok := str(m, "id"); ok {
		rec.ID = v
	}
	if v, ok := str(m, "description"); ok {
		rec.Description = v
	}
	if v, ok := str(m, "priority"); ok && v != "" {
		rec.Priority = v
	}
	if v, ok := str(m, "action"); ok {
		rec.Action = v
	}
	rec.Timestamp = timeField(m, "timestamp")
	if v, ok := id(m, "batch_id", "batchId"); ok {
		rec.BatchID = v
	}
	return rec
}
