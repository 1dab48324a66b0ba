package normalize

import (
	"time"

	"go.uber.org/zap"
)

// HealthMetrics is the canonical system-level health view. Counters default
// to 0 and booleans to false; the normalizer never leaves a field unset.
type HealthMetrics struct {
	Timestamp              string `json:"timestamp"`
	IsConnected            bool   `json:"is_connected"`
	ContractAccessible     bool   `json:"contract_accessible"`
	AccountBalance         string `json:"account_balance"`
	TransactionCount       int    `json:"transaction_count"`
	SuccessfulTransactions int    `json:"successful_transactions"`
	FailedTransactions     int    `json:"failed_transactions"`
	TransactionSuccessRate string `json:"transaction_success_rate"`
	TemperatureBreaches    int    `json:"temperature_breaches"`
	CriticalBreaches       int    `json:"critical_breaches"`
	WarningBreaches        int    `json:"warning_breaches"`
	BatchesCreated         int    `json:"batches_created"`
	BatchesCompleted       int    `json:"batches_completed"`
}

// defaultHealthMetrics returns the fully-defaulted metrics object used when
// the backend response is unusable.
func defaultHealthMetrics() HealthMetrics {
	return HealthMetrics{
		Timestamp:              now().UTC().Format(time.RFC3339),
		AccountBalance:         UnknownLabel,
		TransactionSuccessRate: "0%",
	}
}

// NormalizeHealth converts a system-health payload into canonical metrics.
// The primary shape nests a health_report with connection and transactions
// blocks; older backends flatten the counters at the top level or under
// result/result.report. The boolean result reports whether any signature
// matched: callers surface a recoverable error on false but still receive a
// renderable, fully-defaulted object.
func NormalizeHealth(m map[string]any) (HealthMetrics, bool) {
	if m == nil {
		return defaultHealthMetrics(), false
	}

	if hr, ok := at(m, "health_report"); ok {
		return healthFromReport(hr), true
	}
	if hr, ok := at(m, "result", "health_report"); ok {
		return healthFromReport(hr), true
	}

	// Flat shape: the response itself is the report.
	if flat, ok := scavengeHealth(m); ok {
		return flat, true
	}
	if res, ok := at(m, "result"); ok {
		if flat, ok := scavengeHealth(res); ok {
			return flat, true
		}
	}
	if nested, ok := at(m, "result", "report", "health_metrics"); ok {
		if flat, ok := scavengeHealth(nested); ok {
			return flat, true
		}
	}

	zap.L().Warn("health payload matched no shape signature, using defaults")
	return defaultHealthMetrics(), false
}

// healthFromReport maps the nested {connection, transactions} report shape.
func healthFromReport(hr map[string]any) HealthMetrics {
	h := defaultHealthMetrics()

	if ts := timeField(hr, "timestamp"); ts != "" {
		h.Timestamp = ts
	}

	if conn, ok := at(hr, "connection"); ok {
		connected, _ := boolean(conn, "is_connected")
		h.IsConnected = connected
		// No separate contract signal exists in this backend version.
		h.ContractAccessible = connected
		if _, present := conn["balance"]; present {
			if v, ok := num(conn, "balance"); ok {
				h.AccountBalance = formatNumber(v)
			}
		}
	}

	if tx, ok := at(hr, "transactions"); ok {
		h.TransactionCount = count(tx, "sent")
		h.SuccessfulTransactions = count(tx, "successful")
		h.FailedTransactions = count(tx, "failed")
		if v, ok := firstPresent(tx, "success_rate"); ok {
			h.TransactionSuccessRate = percentage(v)
		}
	}

	return h
}

// scavengeHealth copies recognized counter fields from a flat object. It
// reports a match only when the object carries at least one of the signal
// fields, so arbitrary objects do not masquerade as health reports.
func scavengeHealth(m map[string]any) (HealthMetrics, bool) {
	_, hasConn := m["is_connected"]
	_, hasCount := m["transaction_count"]
	if !hasConn && !hasCount {
		return HealthMetrics{}, false
	}

	h := defaultHealthMetrics()
	if ts := timeField(m, "timestamp"); ts != "" {
		h.Timestamp = ts
	}

	connected, _ := boolean(m, "is_connected")
	h.IsConnected = connected
	if v, ok := boolean(m, "contract_accessible"); ok {
		h.ContractAccessible = v
	} else {
		h.ContractAccessible = connected
	}
	if v, ok := str(m, "account_balance"); ok && v != "" {
		h.AccountBalance = v
	}

	h.TransactionCount = count(m, "transaction_count")
	h.SuccessfulTransactions = count(m, "successful_transactions")
	h.FailedTransactions = count(m, "failed_transactions")
	if v, ok := firstPresent(m, "transaction_success_rate"); ok {
		h.TransactionSuccessRate = percentage(v)
	}
	h.TemperatureBreaches = count(m, "temperature_breaches")
	h.CriticalBreaches = count(m, "critical_breaches")
	h.WarningBreaches = count(m, "warning_breaches")
	h.BatchesCreated = count(m, "batches_created")
	h.BatchesCompleted = count(m, "batches_completed")

	return h, true
}
