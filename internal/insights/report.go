package insights

import (
	"expensify/internal/core"
)

// Report is the monthly insights summary. Money values are rounded to cents.
type Report struct {
	TotalSpent        core.Money      `json:"totalSpent"`
	HighestExpense    core.Money      `json:"highestExpense"`
	TopCategory       *string         `json:"topCategory"`
	AverageDaily      core.Money      `json:"averageDaily"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	DailyTrends       []DailyTotal    `json:"dailyTrends"`
}

type CategoryTotal struct {
	Category string     `json:"category"`
	Value    core.Money `json:"value"`
}

type DailyTotal struct {
	Date   core.Date  `json:"date"`
	Amount core.Money `json:"amount"`
}

// EmptyReport is the report for a month without expenses.
func EmptyReport() Report {
	return Report{
		TotalSpent:        core.Zero,
		HighestExpense:    core.Zero,
		AverageDaily:      core.Zero,
		CategoryBreakdown: []CategoryTotal{},
		DailyTrends:       []DailyTotal{},
	}
}

// IsEmpty reports whether the report was built from zero expenses.
func (r Report) IsEmpty() bool {
	return r.TopCategory == nil && len(r.CategoryBreakdown) == 0
}
