// Package memory is a process-local Store used by tests and the memory backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"expensify/internal/core"
	"expensify/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	users    []core.User
	expenses []core.Expense
	nextUser int64
	nextExp  int64
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = core.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, storage.ErrEmailTaken
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.now().UTC()
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = core.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) ListUserIDs(context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, len(s.users))
	for i, u := range s.users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (s *Store) CreateExpense(_ context.Context, userID int64, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextExp++
	e := core.Expense{
		ID:        s.nextExp,
		UserID:    userID,
		Title:     in.Title,
		Amount:    in.Amount.Rounded(),
		Category:  in.Category,
		Date:      in.Date,
		CreatedAt: s.now().UTC(),
	}
	s.expenses = append(s.expenses, e)
	return e, nil
}

// ListExpenses returns the user's expenses newest date first.
func (s *Store) ListExpenses(_ context.Context, userID int64) ([]core.Expense, error) {
	s.mu.RLock()
	out := s.filter(func(e core.Expense) bool { return e.UserID == userID })
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(userID, id); i >= 0 {
		return s.expenses[i], nil
	}
	return core.Expense{}, storage.ErrNotFound
}

func (s *Store) UpdateExpense(_ context.Context, userID, id int64, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(userID, id)
	if i < 0 {
		return core.Expense{}, storage.ErrNotFound
	}
	e := &s.expenses[i]
	e.Title = in.Title
	e.Amount = in.Amount.Rounded()
	e.Category = in.Category
	e.Date = in.Date
	return *e, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(userID, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
	return nil
}

// ExpensesInRange returns matching expenses in insertion order.
func (s *Store) ExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(e core.Expense) bool {
		return e.UserID == userID && !e.Date.Before(start.Time) && !e.Date.After(end.Time)
	}), nil
}

func (s *Store) filter(keep func(core.Expense) bool) []core.Expense {
	out := []core.Expense{}
	for _, e := range s.expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) indexOf(userID, id int64) int {
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			return i
		}
	}
	return -1
}
