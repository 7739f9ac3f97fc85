package sheets

import (
	"time"

	"expensify/internal/amqp"
)

// Header is the column layout of the audit sheet.
var Header = []any{"Occurred At", "Event", "Message ID", "User", "Expense", "Date", "Title", "Category", "Amount"}

// Row flattens an event into audit sheet cells, in Header order.
// Amounts stay strings so the sheet never sees a float.
func Row(ev *amqp.ExpenseEvent) []any {
	s := ev.Expense
	return []any{
		ev.OccurredAt.UTC().Format(time.RFC3339),
		ev.Type,
		ev.MessageID,
		ev.UserID,
		s.ID,
		s.Date.String(),
		s.Title,
		s.Category,
		s.Amount.String(),
	}
}
