package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"expensify/internal/amqp"
	"expensify/internal/core"
	"expensify/internal/insights"
)

type (
	UserLister interface {
		ListUserIDs(ctx context.Context) ([]int64, error)
	}

	MonthComputer interface {
		ComputeMonth(ctx context.Context, userID int64, month insights.Month) (insights.Report, error)
	}

	DigestPublisher interface {
		PublishDigest(ctx context.Context, msg *amqp.DigestMessage) error
	}
)

// DigestStats summarises one digest run.
type DigestStats struct {
	Month     string
	Users     int
	Published int
	Skipped   int
	Failed    int
}

// DigestJob publishes last month's insights for every user. Reports are
// computed fresh and never stored.
type DigestJob struct {
	users       UserLister
	insights    MonthComputer
	publisher   DigestPublisher
	concurrency int
	now         func() time.Time
}

func NewDigestJob(users UserLister, computer MonthComputer, publisher DigestPublisher, concurrency int) *DigestJob {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &DigestJob{
		users:       users,
		insights:    computer,
		publisher:   publisher,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run computes the month before the current one. Per-user failures are logged
// and counted; only failing to list users aborts the run.
func (j *DigestJob) Run(ctx context.Context) (DigestStats, error) {
	month := insights.MonthOf(core.DateOf(j.now().UTC())).Previous()
	return j.RunMonth(ctx, month)
}

func (j *DigestJob) RunMonth(ctx context.Context, month insights.Month) (DigestStats, error) {
	stats := DigestStats{Month: month.String()}

	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list users: %w", err)
	}
	stats.Users = len(ids)

	var published, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			ok, err := j.digestUser(gctx, id, month)
			switch {
			case err != nil:
				failed.Add(1)
				slog.ErrorContext(gctx, "Digest failed", "user_id", id, "month", month.String(), "error", err)
			case ok:
				published.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Published = int(published.Load())
	stats.Skipped = int(skipped.Load())
	stats.Failed = int(failed.Load())

	slog.InfoContext(ctx, "Insights digest completed",
		"month", stats.Month,
		"users", stats.Users,
		"published", stats.Published,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, ctx.Err()
}

// digestUser reports whether a digest was published; months without spending are skipped.
func (j *DigestJob) digestUser(ctx context.Context, userID int64, month insights.Month) (bool, error) {
	report, err := j.insights.ComputeMonth(ctx, userID, month)
	if err != nil {
		return false, err
	}
	if report.IsEmpty() {
		return false, nil
	}
	if err := j.publisher.PublishDigest(ctx, amqp.NewDigestMessage(userID, month, report)); err != nil {
		return false, fmt.Errorf("publish digest: %w", err)
	}
	return true, nil
}
