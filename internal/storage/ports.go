package storage

import (
	"context"
	"errors"

	"expensify/internal/core"
)

var (
	// ErrNotFound is returned when no row matches, including rows owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already exists")
)

// Ports implemented by every storage backend.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id int64) (core.User, error)
		ListUserIDs(ctx context.Context) ([]int64, error)
	}

	// ExpenseStore scopes every operation to the owning user.
	ExpenseStore interface {
		CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error)
		ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
		GetExpense(ctx context.Context, userID, id int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, userID, id int64, in core.ExpenseInput) (core.Expense, error)
		DeleteExpense(ctx context.Context, userID, id int64) error
		// ExpensesInRange returns the user's expenses dated within [start, end], oldest row first.
		ExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error)
	}

	Store interface {
		UserStore
		ExpenseStore
		Ping(ctx context.Context) error
		Close() error
	}
)
