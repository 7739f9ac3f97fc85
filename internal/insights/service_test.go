package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensify/internal/core"
	"expensify/internal/storage/memory"
)

type fetcherFunc func(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error)

func (f fetcherFunc) ExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	return f(ctx, userID, start, end)
}

func TestComputeInsightsFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	add := func(userID int64, cents int64, category string, d core.Date) {
		_, err := store.CreateExpense(ctx, userID, core.ExpenseInput{
			Title: "x", Amount: core.MoneyFromCents(cents), Category: category, Date: d,
		})
		require.NoError(t, err)
	}
	add(1, 1000, "Food", core.NewDate(2025, time.May, 2))
	add(1, 2000, "Food", core.NewDate(2025, time.May, 2))
	add(1, 500, "Travel", core.NewDate(2025, time.May, 15))
	add(1, 9999, "Food", core.NewDate(2025, time.April, 30))
	add(1, 9999, "Food", core.NewDate(2025, time.June, 1))
	add(2, 9999, "Rent", core.NewDate(2025, time.May, 10))

	svc := NewService(store, WithFetchTimeout(time.Second))
	r, err := svc.ComputeInsights(ctx, 1, "2025-05")
	require.NoError(t, err)

	assert.Equal(t, "35.00", r.TotalSpent.String())
	assert.Equal(t, "20.00", r.HighestExpense.String())
	require.NotNil(t, r.TopCategory)
	assert.Equal(t, "Food", *r.TopCategory)
	assert.Equal(t, "1.13", r.AverageDaily.String())
	assert.Len(t, r.CategoryBreakdown, 2)
	assert.Len(t, r.DailyTrends, 2)

	empty, err := svc.ComputeInsights(ctx, 3, "2025-05")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestComputeInsightsRejectsBadSelectorWithoutFetching(t *testing.T) {
	called := false
	svc := NewService(fetcherFunc(func(context.Context, int64, core.Date, core.Date) ([]core.Expense, error) {
		called = true
		return nil, nil
	}))

	for _, selector := range []string{"2025-13", "", "2025-5", "May 2025"} {
		_, err := svc.ComputeInsights(context.Background(), 1, selector)
		assert.ErrorIs(t, err, ErrInvalidSelector, selector)
	}
	assert.False(t, called)
}

func TestComputeInsightsPassesMonthBounds(t *testing.T) {
	var gotStart, gotEnd core.Date
	var gotUser int64
	svc := NewService(fetcherFunc(func(_ context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
		gotUser, gotStart, gotEnd = userID, start, end
		return nil, nil
	}))

	_, err := svc.ComputeInsights(context.Background(), 7, "2024-02")
	require.NoError(t, err)
	assert.Equal(t, int64(7), gotUser)
	assert.Equal(t, "2024-02-01", gotStart.String())
	assert.Equal(t, "2024-02-29", gotEnd.String())
}

func TestComputeInsightsWrapsFetchErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(fetcherFunc(func(context.Context, int64, core.Date, core.Date) ([]core.Expense, error) {
		return nil, boom
	}))

	r, err := svc.ComputeInsights(context.Background(), 1, "2025-05")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, r.CategoryBreakdown)
}

func TestComputeMonthAppliesFetchTimeout(t *testing.T) {
	svc := NewService(fetcherFunc(func(ctx context.Context, _ int64, _, _ core.Date) ([]core.Expense, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)
		<-ctx.Done()
		return nil, ctx.Err()
	}), WithFetchTimeout(50*time.Millisecond))

	_, err := svc.ComputeMonth(context.Background(), 1, Month{Year: 2025, Month: time.May})
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
