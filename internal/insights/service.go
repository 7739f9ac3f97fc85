// Package insights turns a month of expense records into a summary report.
//
// The pipeline is selector -> Range -> fetched records -> Report. Only the
// fetch touches the outside world; Aggregate is a pure function of its input.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensify/internal/core"
)

// Fetcher returns every expense of one user dated within [start, end].
// Zero records is a valid result.
type Fetcher interface {
	ExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error)
}

// Service computes reports on demand. It keeps no state between calls.
type Service struct {
	fetcher Fetcher
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithFetchTimeout bounds how long a single fetch may take. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(fetcher Fetcher, opts ...Option) *Service {
	s := &Service{fetcher: fetcher}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeInsights resolves selector, fetches the user's records for that month
// and aggregates them. It returns ErrInvalidSelector or ErrFetchFailed (wrapping
// the store error); the aggregator itself never fails.
func (s *Service) ComputeInsights(ctx context.Context, userID int64, selector string) (Report, error) {
	month, err := ParseMonth(selector)
	if err != nil {
		return Report{}, err
	}
	return s.ComputeMonth(ctx, userID, month)
}

// ComputeMonth is ComputeInsights for an already parsed month.
func (s *Service) ComputeMonth(ctx context.Context, userID int64, month Month) (Report, error) {
	rng := month.Range()

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	records, err := s.fetcher.ExpensesInRange(fetchCtx, userID, rng.Start, rng.End)
	if err != nil {
		return Report{}, fmt.Errorf("%w (user=%d, month=%s): %w", ErrFetchFailed, userID, month, err)
	}

	report := Aggregate(rng, records)
	slog.DebugContext(ctx, "Insights computed",
		"user_id", userID,
		"month", month.String(),
		"records", len(records),
		"total", report.TotalSpent.String())
	return report, nil
}
