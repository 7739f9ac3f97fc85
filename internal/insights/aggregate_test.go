package insights

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensify/internal/core"
)

func may2025() Range { return Month{Year: 2025, Month: time.May}.Range() }

func expense(cents int64, category string, day int) core.Expense {
	return core.Expense{
		Amount:   core.MoneyFromCents(cents),
		Category: category,
		Date:     core.NewDate(2025, time.May, day),
	}
}

func TestAggregateEmpty(t *testing.T) {
	for _, records := range [][]core.Expense{nil, {}} {
		r := Aggregate(may2025(), records)
		assert.True(t, r.TotalSpent.IsZero())
		assert.True(t, r.HighestExpense.IsZero())
		assert.True(t, r.AverageDaily.IsZero())
		assert.Nil(t, r.TopCategory)
		assert.NotNil(t, r.CategoryBreakdown)
		assert.Empty(t, r.CategoryBreakdown)
		assert.NotNil(t, r.DailyTrends)
		assert.Empty(t, r.DailyTrends)
		assert.True(t, r.IsEmpty())
	}

	out, err := json.Marshal(Aggregate(may2025(), nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalSpent": 0,
		"highestExpense": 0,
		"topCategory": null,
		"averageDaily": 0,
		"categoryBreakdown": [],
		"dailyTrends": []
	}`, string(out))
}

func TestAggregateScenario(t *testing.T) {
	records := []core.Expense{
		expense(1000, "Food", 2),
		expense(2000, "Food", 2),
		expense(500, "Travel", 15),
	}
	r := Aggregate(may2025(), records)

	assert.Equal(t, "35.00", r.TotalSpent.String())
	assert.Equal(t, "20.00", r.HighestExpense.String())
	require.NotNil(t, r.TopCategory)
	assert.Equal(t, "Food", *r.TopCategory)
	assert.Equal(t, "1.13", r.AverageDaily.String())

	require.Len(t, r.CategoryBreakdown, 2)
	assert.Equal(t, "Food", r.CategoryBreakdown[0].Category)
	assert.Equal(t, "30.00", r.CategoryBreakdown[0].Value.String())
	assert.Equal(t, "Travel", r.CategoryBreakdown[1].Category)
	assert.Equal(t, "5.00", r.CategoryBreakdown[1].Value.String())

	require.Len(t, r.DailyTrends, 2)
	assert.Equal(t, "2025-05-02", r.DailyTrends[0].Date.String())
	assert.Equal(t, "30.00", r.DailyTrends[0].Amount.String())
	assert.Equal(t, "2025-05-15", r.DailyTrends[1].Date.String())
	assert.Equal(t, "5.00", r.DailyTrends[1].Amount.String())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalSpent": 35.00,
		"highestExpense": 20.00,
		"topCategory": "Food",
		"averageDaily": 1.13,
		"categoryBreakdown": [{"category":"Food","value":30.00},{"category":"Travel","value":5.00}],
		"dailyTrends": [{"date":"2025-05-02","amount":30.00},{"date":"2025-05-15","amount":5.00}]
	}`, string(out))
}

func TestAggregateAverageUsesMonthLength(t *testing.T) {
	r := Aggregate(may2025(), []core.Expense{expense(3100, "Rent", 1)})
	assert.Equal(t, "1.00", r.AverageDaily.String())

	feb := Month{Year: 2024, Month: time.February}.Range()
	r = Aggregate(feb, []core.Expense{{Amount: core.MoneyFromCents(2900), Date: core.NewDate(2024, time.February, 29)}})
	assert.Equal(t, "1.00", r.AverageDaily.String())

	// two active days in a 30-day month still divide by 30
	apr := Month{Year: 2025, Month: time.April}.Range()
	r = Aggregate(apr, []core.Expense{
		{Amount: core.MoneyFromCents(3000), Date: core.NewDate(2025, time.April, 3)},
		{Amount: core.MoneyFromCents(3000), Date: core.NewDate(2025, time.April, 9)},
	})
	assert.Equal(t, "2.00", r.AverageDaily.String())
}

func TestAggregateTopCategoryTieKeepsFirstSeen(t *testing.T) {
	r := Aggregate(may2025(), []core.Expense{
		expense(500, "Books", 3),
		expense(300, "Games", 1),
		expense(200, "Games", 4),
		expense(100, "Snacks", 2),
	})
	require.NotNil(t, r.TopCategory)
	assert.Equal(t, "Books", *r.TopCategory)

	r = Aggregate(may2025(), []core.Expense{
		expense(300, "Games", 1),
		expense(500, "Books", 3),
		expense(200, "Games", 4),
	})
	assert.Equal(t, "Games", *r.TopCategory)
}

func TestAggregateBlankCategoryIsItsOwnGroup(t *testing.T) {
	r := Aggregate(may2025(), []core.Expense{
		expense(700, "", 1),
		expense(100, "Food", 1),
		expense(50, "", 2),
	})
	require.Len(t, r.CategoryBreakdown, 2)
	assert.Equal(t, "", r.CategoryBreakdown[0].Category)
	assert.Equal(t, "7.50", r.CategoryBreakdown[0].Value.String())
	require.NotNil(t, r.TopCategory)
	assert.Equal(t, "", *r.TopCategory)
}

func TestAggregateGroupsByCalendarDay(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	records := []core.Expense{
		{Amount: core.MoneyFromCents(100), Date: core.Date{Time: time.Date(2025, time.May, 10, 8, 0, 0, 0, loc)}},
		{Amount: core.MoneyFromCents(200), Date: core.Date{Time: time.Date(2025, time.May, 10, 22, 30, 0, 0, loc)}},
		{Amount: core.MoneyFromCents(400), Date: core.NewDate(2025, time.May, 10)},
	}
	r := Aggregate(may2025(), records)
	require.Len(t, r.DailyTrends, 1)
	assert.Equal(t, "2025-05-10", r.DailyTrends[0].Date.String())
	assert.Equal(t, "7.00", r.DailyTrends[0].Amount.String())
}

func TestAggregateTrendsFollowInputOrder(t *testing.T) {
	r := Aggregate(may2025(), []core.Expense{
		expense(100, "A", 20),
		expense(100, "B", 3),
		expense(100, "A", 11),
		expense(100, "B", 20),
	})
	var got []string
	for _, d := range r.DailyTrends {
		got = append(got, d.Date.String())
	}
	assert.Equal(t, []string{"2025-05-20", "2025-05-03", "2025-05-11"}, got)
}

func TestAggregateRoundsOnce(t *testing.T) {
	third := core.MoneyFromDecimal(decimal.RequireFromString("0.333"))
	records := []core.Expense{
		{Amount: third, Category: "A", Date: core.NewDate(2025, time.May, 1)},
		{Amount: third, Category: "B", Date: core.NewDate(2025, time.May, 2)},
		{Amount: third, Category: "C", Date: core.NewDate(2025, time.May, 3)},
	}
	r := Aggregate(may2025(), records)
	// 0.999 rounds to 1.00; rounding each addend first would give 0.99
	assert.Equal(t, "1.00", r.TotalSpent.String())
	assert.Equal(t, "0.33", r.HighestExpense.String())
	for _, c := range r.CategoryBreakdown {
		assert.Equal(t, "0.33", c.Value.String())
	}
}

func TestAggregateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"Food", "Travel", "Rent", "", "Fun"}

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		records := make([]core.Expense, n)
		exactTotal := decimal.Zero
		for i := range records {
			cents := int64(1 + rng.Intn(50000))
			records[i] = expense(cents, categories[rng.Intn(len(categories))], 1+rng.Intn(31))
			exactTotal = exactTotal.Add(decimal.New(cents, -2))
		}

		r := Aggregate(may2025(), records)
		t.Run(fmt.Sprintf("trial_%d", trial), func(t *testing.T) {
			assert.True(t, r.TotalSpent.Decimal().Equal(exactTotal.Round(2)))

			matched := false
			for _, rec := range records {
				assert.False(t, rec.Amount.GreaterThan(r.HighestExpense))
				if rec.Amount.Equal(r.HighestExpense) {
					matched = true
				}
			}
			assert.True(t, matched, "highest expense must equal some record")

			sum := decimal.Zero
			for _, c := range r.CategoryBreakdown {
				sum = sum.Add(c.Value.Decimal())
			}
			tolerance := decimal.NewFromFloat(0.005).Mul(decimal.NewFromInt(int64(len(r.CategoryBreakdown))))
			assert.True(t, sum.Sub(r.TotalSpent.Decimal()).Abs().LessThanOrEqual(tolerance))

			again := Aggregate(may2025(), records)
			a, _ := json.Marshal(r)
			b, _ := json.Marshal(again)
			assert.JSONEq(t, string(a), string(b), "aggregation must be deterministic")
		})
	}
}
