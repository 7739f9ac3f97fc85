package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"expensify/internal/auth"
	"expensify/internal/core"
	applog "expensify/internal/log"
	"expensify/internal/services"
)

// expenseDTO is the wire form of an expense.
type expenseDTO struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Title     string     `json:"title"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	Date      core.Date  `json:"date"`
	CreatedAt time.Time  `json:"created_at"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Amount:    e.Amount,
		Category:  e.Category,
		Date:      e.Date,
		CreatedAt: e.CreatedAt,
	}
}

type createExpenseResponse struct {
	Message    string     `json:"message"`
	NewExpense expenseDTO `json:"newExpense"`
}

type updateExpenseResponse struct {
	Message string     `json:"message"`
	Expense expenseDTO `json:"expense"`
}

func (req expenseRequest) toService() services.ExpenseRequest {
	return services.ExpenseRequest{
		Title:    string(req.Title),
		Amount:   string(req.Amount),
		Category: string(req.Category),
		Date:     string(req.Date),
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Title, amount, and date are required")
		return
	}

	e, err := s.expenses.Create(r.Context(), userID, req.toService())
	if err != nil {
		writeServiceError(w, r, err, "Failed to add expense")
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithUser(userID).
			WithExpense(e.ID, e.Amount.String(), e.Category).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, createExpenseResponse{
		Message:    "Expense added successfully",
		NewExpense: toExpenseDTO(e),
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	expenses, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch expenses")
		return
	}

	out := make([]expenseDTO, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Expense not found or unauthorized")
		return
	}

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Title, amount, and date are required")
		return
	}

	e, err := s.expenses.Update(r.Context(), userID, id, req.toService())
	if err != nil {
		writeServiceError(w, r, err, "Failed to update expense")
		return
	}
	writeJSON(w, http.StatusOK, updateExpenseResponse{
		Message: "Expense updated successfully",
		Expense: toExpenseDTO(e),
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Expense not found or unauthorized")
		return
	}

	if err := s.expenses.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err, "Failed to delete expense")
		return
	}
	writeMessage(w, http.StatusOK, "Expense deleted successfully")
}
