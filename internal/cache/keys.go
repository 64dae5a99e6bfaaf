package cache

import "fmt"

// ReportSummaryKey caches the aggregated sales summary.
const ReportSummaryKey = "reports:summary"

// OrderKey caches a single order with its items.
func OrderKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}
