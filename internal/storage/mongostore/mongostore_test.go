package mongostore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensify/internal/core"
	"expensify/internal/storage"
)

// newTestStore needs a reachable server; set MONGO_TEST_URI to run.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "expensify_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s, err := New(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.users.Database().Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func may(day int) core.Date { return core.NewDate(2025, time.May, day) }

func TestDocConversionKeepsCentsAndDate(t *testing.T) {
	e := core.Expense{
		ID:       7,
		UserID:   3,
		Title:    "Lunch",
		Amount:   core.MoneyFromCents(1250),
		Category: "Food",
		Date:     may(9),
	}

	doc := toDoc(e)
	assert.Equal(t, int64(1250), doc.AmountCents)
	assert.Equal(t, "2025-05-09", doc.Date)

	back, err := fromDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, e.Date, back.Date)
	assert.True(t, e.Amount.Equal(back.Amount))

	doc.Date = "09/05/2025"
	_, err = fromDoc(doc)
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, core.User{Name: "Ada", Email: "Ada@Example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = s.CreateUser(ctx, core.User{Name: "Again", Email: "ada@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	byEmail, err := s.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.GetUserByID(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestExpensesAreScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := core.ExpenseInput{Title: "Rent", Amount: core.MoneyFromCents(100000), Category: "Housing", Date: may(1)}
	e, err := s.CreateExpense(ctx, 1, in)
	require.NoError(t, err)

	_, err = s.GetExpense(ctx, 2, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	in.Title = "Rent May"
	updated, err := s.UpdateExpense(ctx, 1, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Rent May", updated.Title)

	_, err = s.UpdateExpense(ctx, 2, e.ID, in)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteExpense(ctx, 2, e.ID), storage.ErrNotFound)
	require.NoError(t, s.DeleteExpense(ctx, 1, e.ID))
	assert.ErrorIs(t, s.DeleteExpense(ctx, 1, e.ID), storage.ErrNotFound)
}

func TestExpensesInRangeIsInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, d := range []core.Date{core.NewDate(2025, time.April, 30), may(1), may(31), core.NewDate(2025, time.June, 1)} {
		_, err := s.CreateExpense(ctx, 1, core.ExpenseInput{Title: "x", Amount: core.MoneyFromCents(100), Date: d})
		require.NoError(t, err)
	}

	got, err := s.ExpensesInRange(ctx, 1, may(1), may(31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, may(1), got[0].Date)
	assert.Equal(t, may(31), got[1].Date)

	list, err := s.ListExpenses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, core.NewDate(2025, time.June, 1), list[0].Date)
}
