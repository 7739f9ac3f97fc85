package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensify/internal/core"
	"expensify/internal/storage"
)

func input(title string, cents int64, day int) core.ExpenseInput {
	return core.ExpenseInput{
		Title:    title,
		Amount:   core.MoneyFromCents(cents),
		Category: "Food",
		Date:     core.NewDate(2025, time.May, day),
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, core.User{Name: "Ada", Email: "Ada@Example.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = s.CreateUser(ctx, core.User{Name: "Other", Email: "ADA@example.com"})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	got, err := s.GetUserByEmail(ctx, " ada@EXAMPLE.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByID(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestExpensesAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := New()

	e, err := s.CreateExpense(ctx, 1, input("lunch", 1250, 3))
	require.NoError(t, err)

	_, err = s.GetExpense(ctx, 2, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateExpense(ctx, 2, e.ID, input("hijack", 1, 1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, 2, e.ID), storage.ErrNotFound)

	updated, err := s.UpdateExpense(ctx, 1, e.ID, input("dinner", 3000, 4))
	require.NoError(t, err)
	assert.Equal(t, "dinner", updated.Title)
	assert.Equal(t, "30.00", updated.Amount.String())

	require.NoError(t, s.DeleteExpense(ctx, 1, e.ID))
	_, err = s.GetExpense(ctx, 1, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListExpensesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, day := range []int{5, 20, 1, 20} {
		_, err := s.CreateExpense(ctx, 1, input("x", 100, day))
		require.NoError(t, err)
	}

	list, err := s.ListExpenses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, int64(4), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)
	assert.Equal(t, int64(1), list[2].ID)
	assert.Equal(t, int64(3), list[3].ID)
}

func TestExpensesInRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.CreateExpense(ctx, 1, core.ExpenseInput{Title: "prev", Amount: core.MoneyFromCents(1), Date: core.NewDate(2025, time.April, 30)})
	_, _ = s.CreateExpense(ctx, 1, input("first", 100, 1))
	_, _ = s.CreateExpense(ctx, 1, input("last", 200, 31))
	_, _ = s.CreateExpense(ctx, 2, input("other user", 300, 10))
	_, _ = s.CreateExpense(ctx, 1, core.ExpenseInput{Title: "next", Amount: core.MoneyFromCents(1), Date: core.NewDate(2025, time.June, 1)})

	got, err := s.ExpensesInRange(ctx, 1, core.NewDate(2025, time.May, 1), core.NewDate(2025, time.May, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "last", got[1].Title)

	none, err := s.ExpensesInRange(ctx, 3, core.NewDate(2025, time.May, 1), core.NewDate(2025, time.May, 31))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestExpensesInRangeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ExpensesInRange(ctx, 1, core.NewDate(2025, time.May, 1), core.NewDate(2025, time.May, 31))
	assert.ErrorIs(t, err, context.Canceled)
}
