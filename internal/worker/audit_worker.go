package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensify/internal/amqp"
	"expensify/internal/sheets"
)

// AuditWorker mirrors expense events into the audit sheet.
type AuditWorker struct {
	writer sheets.AuditWriter
}

func NewAuditWorker(writer sheets.AuditWriter) *AuditWorker {
	return &AuditWorker{writer: writer}
}

// HandleExpenseEvent processes a single expense event from AMQP. A returned
// error sends the delivery back to the queue.
func (w *AuditWorker) HandleExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	if ev == nil {
		return errors.New("nil expense event")
	}

	switch ev.Type {
	case amqp.RoutingExpenseCreated, amqp.RoutingExpenseUpdated, amqp.RoutingExpenseDeleted:
	default:
		// Redelivery would not help: drop it.
		slog.WarnContext(ctx, "Ignoring unknown expense event",
			"event_type", ev.Type,
			"message_id", ev.MessageID)
		return nil
	}

	slog.InfoContext(ctx, "Processing expense event",
		"event_type", ev.Type,
		"message_id", ev.MessageID,
		"user_id", ev.UserID,
		"expense_id", ev.Expense.ID)

	ref, err := w.writer.AppendEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}

	slog.InfoContext(ctx, "Expense event recorded",
		"message_id", ev.MessageID,
		"sheets_ref", ref)
	return nil
}
