package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"expensify/internal/auth"
	"expensify/internal/core"
	"expensify/internal/insights"
	applog "expensify/internal/log"
	"expensify/internal/telemetry"
)

type categoryEntry struct {
	Category string     `json:"category"`
	Value    core.Money `json:"value"`
	Color    string     `json:"color"`
}

// insightsResponse is insights.Report with presentation colors added.
type insightsResponse struct {
	TotalSpent        core.Money            `json:"totalSpent"`
	HighestExpense    core.Money            `json:"highestExpense"`
	TopCategory       *string               `json:"topCategory"`
	AverageDaily      core.Money            `json:"averageDaily"`
	CategoryBreakdown []categoryEntry       `json:"categoryBreakdown"`
	DailyTrends       []insights.DailyTotal `json:"dailyTrends"`
}

func newInsightsResponse(r insights.Report) insightsResponse {
	breakdown := make([]categoryEntry, len(r.CategoryBreakdown))
	for i, c := range r.CategoryBreakdown {
		breakdown[i] = categoryEntry{Category: c.Category, Value: c.Value, Color: categoryColor(i)}
	}
	trends := r.DailyTrends
	if trends == nil {
		trends = []insights.DailyTotal{}
	}
	return insightsResponse{
		TotalSpent:        r.TotalSpent,
		HighestExpense:    r.HighestExpense,
		TopCategory:       r.TopCategory,
		AverageDaily:      r.AverageDaily,
		CategoryBreakdown: breakdown,
		DailyTrends:       trends,
	}
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	month := r.URL.Query().Get("month")
	if strings.TrimSpace(month) == "" {
		writeMessage(w, http.StatusBadRequest, "Month is required (YYYY-MM)")
		return
	}

	report, err := s.insights.ComputeInsights(ctx, userID, month)
	switch {
	case errors.Is(err, insights.ErrInvalidSelector):
		writeMessage(w, http.StatusBadRequest, "Month must be in YYYY-MM format")
		return
	case err != nil:
		fields := applog.NewFields().
			WithOperation(applog.OpInsights).
			WithUser(userID).
			WithError(err, applog.ErrorTypeDatabase)
		applog.FromContext(ctx).ErrorContext(ctx, "Insights computation failed", fields.ToSlice()...)
		telemetry.CaptureError(ctx, err, map[string]string{
			"operation": applog.OpInsights,
			"user_id":   strconv.FormatInt(userID, 10),
		})
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, newInsightsResponse(report))
}
