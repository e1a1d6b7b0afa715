package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"it10bb/internal/core"
)

// TimestampLayout is how breakdown rows record when they were written.
const TimestampLayout = "2006-01-02 15:04:05"

var ErrEmptyReference = errors.New("breakdown reference is required")

// Ports for outbound adapters.
type (
	BreakdownWriter interface {
		AppendBreakdown(ctx context.Context, b Breakdown) (rowRef string, err error)
	}
)

// Breakdown is one exported estimate.
type Breakdown struct {
	Reference  string
	CreatedAt  time.Time
	Allocation core.Allocation
}

// Validate checks that the breakdown can be written as rows.
func (b Breakdown) Validate() error {
	if b.Reference == "" {
		return ErrEmptyReference
	}
	if got := b.Allocation.PercentTotal(); got != 100 {
		return fmt.Errorf("%w: percentages sum to %d", core.ErrInternalInconsistency, got)
	}
	return nil
}

// Rows lays the breakdown out as [timestamp, reference, category, percent,
// amount] rows, one per category, followed by a TOTAL row.
func (b Breakdown) Rows() [][]any {
	ts := b.CreatedAt.UTC().Format(TimestampLayout)
	lines := b.Allocation.Lines()

	rows := make([][]any, 0, len(lines)+1)
	for _, l := range lines {
		rows = append(rows, []any{ts, b.Reference, l.Category.Label(), l.Percent, l.Amount})
	}
	rows = append(rows, []any{ts, b.Reference, "TOTAL", b.Allocation.PercentTotal(), b.Allocation.Total})
	return rows
}
