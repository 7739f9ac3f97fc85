package sheets

import (
	"context"

	"expensify/internal/amqp"
)

// Ports for outbound adapters.
type (
	// AuditWriter records one row per expense event.
	AuditWriter interface {
		AppendEvent(ctx context.Context, ev *amqp.ExpenseEvent) (rowRef string, err error)
	}
)
