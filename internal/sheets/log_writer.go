package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"expensify/internal/amqp"
)

// LogWriter is the AuditWriter used when no spreadsheet is configured.
type LogWriter struct {
	logger *slog.Logger
}

func NewLogWriter(logger *slog.Logger) *LogWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogWriter{logger: logger}
}

func (w *LogWriter) AppendEvent(ctx context.Context, ev *amqp.ExpenseEvent) (string, error) {
	w.logger.InfoContext(ctx, "Expense event received",
		"event_type", ev.Type,
		"message_id", ev.MessageID,
		"user_id", ev.UserID,
		"expense_id", ev.Expense.ID,
		"amount", ev.Expense.Amount.String(),
		"category", ev.Expense.Category)
	return fmt.Sprintf("log:%s", ev.MessageID), nil
}
