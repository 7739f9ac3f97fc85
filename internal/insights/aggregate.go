package insights

import (
	"expensify/internal/core"
)

// bucket is a running sum keyed by a group label, kept in first-seen order.
type bucket[K comparable] struct {
	index map[K]int
	keys  []K
	sums  []core.Money
}

func newBucket[K comparable]() *bucket[K] {
	return &bucket[K]{index: make(map[K]int)}
}

func (b *bucket[K]) add(key K, amount core.Money) {
	i, ok := b.index[key]
	if !ok {
		i = len(b.keys)
		b.index[key] = i
		b.keys = append(b.keys, key)
		b.sums = append(b.sums, core.Zero)
	}
	b.sums[i] = b.sums[i].Add(amount)
}

// Aggregate builds the report for records that already belong to one user and
// fall inside rng. Sums are exact; every output value is rounded once.
func Aggregate(rng Range, records []core.Expense) Report {
	if len(records) == 0 {
		return EmptyReport()
	}

	total := core.Zero
	highest := records[0].Amount
	categories := newBucket[string]()
	days := newBucket[core.Date]()

	for _, r := range records {
		total = total.Add(r.Amount)
		if r.Amount.GreaterThan(highest) {
			highest = r.Amount
		}
		categories.add(r.Category, r.Amount)
		days.add(core.DateOf(r.Date.Time), r.Amount)
	}

	report := Report{
		TotalSpent:        total.Rounded(),
		HighestExpense:    highest.Rounded(),
		AverageDaily:      total.Div(rng.Days()).Rounded(),
		CategoryBreakdown: make([]CategoryTotal, len(categories.keys)),
		DailyTrends:       make([]DailyTotal, len(days.keys)),
	}

	top := 0
	for i, name := range categories.keys {
		report.CategoryBreakdown[i] = CategoryTotal{Category: name, Value: categories.sums[i].Rounded()}
		// strict comparison keeps the earliest category on ties
		if categories.sums[i].GreaterThan(categories.sums[top]) {
			top = i
		}
	}
	topName := categories.keys[top]
	report.TopCategory = &topName

	for i, day := range days.keys {
		report.DailyTrends[i] = DailyTotal{Date: day, Amount: days.sums[i].Rounded()}
	}

	return report
}
