package sheets

import (
	"context"

	"paycycle/internal/analytics"
)

// Ports for outbound adapters.
type (
	// ReportWriter exports analytics reports to an external sheet.
	ReportWriter interface {
		// AppendTrendReport appends one row per trend bucket and returns a
		// reference to the written range.
		AppendTrendReport(ctx context.Context, userID string, report analytics.TrendSeries) (ref string, err error)
	}
)
