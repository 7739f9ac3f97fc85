package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"expensify/internal/amqp"
	"expensify/internal/core"
	"expensify/internal/storage"
)

// EventPublisher announces committed expense mutations.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseRequest is the user-supplied form of an expense. Amount and Date are
// kept as text so they can be validated with precise messages.
type ExpenseRequest struct {
	Title    string
	Amount   string
	Category string
	Date     string
}

// Input validates the request and converts it to a core.ExpenseInput.
func (r ExpenseRequest) Input() (core.ExpenseInput, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" || strings.TrimSpace(r.Amount) == "" || strings.TrimSpace(r.Date) == "" {
		return core.ExpenseInput{}, invalid("Title, amount, and date are required", nil)
	}

	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.ExpenseInput{}, invalid("Amount must be a positive number", err)
	}

	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.ExpenseInput{}, invalid("Date must be YYYY-MM-DD", err)
	}

	in := core.ExpenseInput{
		Title:    title,
		Amount:   amount,
		Category: strings.TrimSpace(r.Category),
		Date:     date,
	}
	if err := in.Validate(); err != nil {
		return core.ExpenseInput{}, invalid(capitalize(err.Error()), err)
	}
	return in, nil
}

// ExpenseService runs expense CRUD for one user at a time and publishes change events
type ExpenseService struct {
	store     storage.ExpenseStore
	publisher EventPublisher
}

// NewExpenseService builds the service; publisher may be nil when AMQP is not configured.
func NewExpenseService(store storage.ExpenseStore, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

func (s *ExpenseService) Create(ctx context.Context, userID int64, req ExpenseRequest) (core.Expense, error) {
	in, err := req.Input()
	if err != nil {
		return core.Expense{}, err
	}

	e, err := s.store.CreateExpense(ctx, userID, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.RoutingExpenseCreated, e)
	return e, nil
}

// List returns the user's expenses, newest date first.
func (s *ExpenseService) List(ctx context.Context, userID int64) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Update replaces the editable fields. storage.ErrNotFound covers both a
// missing expense and one owned by someone else.
func (s *ExpenseService) Update(ctx context.Context, userID, id int64, req ExpenseRequest) (core.Expense, error) {
	in, err := req.Input()
	if err != nil {
		return core.Expense{}, err
	}

	e, err := s.store.UpdateExpense(ctx, userID, id, in)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.RoutingExpenseUpdated, e)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	// snapshot for the deleted event
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("load expense: %w", err)
	}

	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.RoutingExpenseDeleted, e)
	return nil
}

// publish never fails the caller: the mutation is already committed.
func (s *ExpenseService) publish(ctx context.Context, eventType string, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP not configured, skipping expense event", "event_type", eventType, "expense_id", e.ID)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(eventType, e)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"event_type", eventType,
			"expense_id", e.ID,
			"user_id", e.UserID,
			"error", err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
