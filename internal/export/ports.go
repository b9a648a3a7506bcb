// Package export defines where recomputed summaries land once the worker
// has processed a change event.
package export

import (
	"context"

	"busta/internal/core"
)

type BudgetSummaryWriter interface {
	WriteBudgetSummary(ctx context.Context, summary core.BudgetSummary) error
}

type CycleSummaryWriter interface {
	WriteCycleSummary(ctx context.Context, summary core.TwelveWeekCycleSummary) error
}

// SummaryWriter is the full export surface the worker drives.
type SummaryWriter interface {
	BudgetSummaryWriter
	CycleSummaryWriter
}
