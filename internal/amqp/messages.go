package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"expensify/internal/core"
	"expensify/internal/insights"
)

// Routing keys on the topic exchange.
const (
	RoutingExpenseCreated = "expense.created"
	RoutingExpenseUpdated = "expense.updated"
	RoutingExpenseDeleted = "expense.deleted"
	RoutingInsightsDigest = "insights.digest"

	expenseBindingKey = "expense.*"
)

// ExpenseSnapshot is the expense state carried by an event.
type ExpenseSnapshot struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Amount   core.Money `json:"amount"`
	Category string     `json:"category"`
	Date     core.Date  `json:"date"`
}

// ExpenseEvent announces a committed expense mutation. Deleted events carry
// the snapshot taken before deletion.
type ExpenseEvent struct {
	MessageID  string          `json:"message_id"`
	Type       string          `json:"type"`
	UserID     int64           `json:"user_id"`
	Expense    ExpenseSnapshot `json:"expense"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewExpenseEvent(eventType string, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		MessageID: uuid.NewString(),
		Type:      eventType,
		UserID:    e.UserID,
		Expense: ExpenseSnapshot{
			ID:       e.ID,
			Title:    e.Title,
			Amount:   e.Amount,
			Category: e.Category,
			Date:     e.Date,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DigestMessage carries one user's monthly report to downstream notifiers.
type DigestMessage struct {
	MessageID   string          `json:"message_id"`
	UserID      int64           `json:"user_id"`
	Month       string          `json:"month"`
	Report      insights.Report `json:"report"`
	GeneratedAt time.Time       `json:"generated_at"`
}

func NewDigestMessage(userID int64, month insights.Month, report insights.Report) *DigestMessage {
	return &DigestMessage{
		MessageID:   uuid.NewString(),
		UserID:      userID,
		Month:       month.String(),
		Report:      report,
		GeneratedAt: time.Now().UTC(),
	}
}

func (m *DigestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
