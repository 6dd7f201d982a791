package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
	"expensetracker/internal/form"
	applog "expensetracker/internal/log"
)

// expenseResponse adds the display label next to the stored category.
type expenseResponse struct {
	core.Expense
	DisplayCategory string `json:"display_category"`
}

func toResponse(e core.Expense) expenseResponse {
	return expenseResponse{Expense: e, DisplayCategory: core.DisplayCategory(e.Category)}
}

// handleListExpenses returns every expense, newest date first. Pass
// ?order=insertion for the stored order.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items := s.store.List(r.Context())
	if r.URL.Query().Get("order") != "insertion" {
		items = aggregate.SortByDateDesc(items)
	}

	out := make([]expenseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toResponse(e))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, ok := s.store.Get(r.Context(), id)
	if !ok {
		NotFoundError("Expense not found").Write(w)
		return
	}
	NewResponse().JSON(toResponse(e)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	s.submitExpense(w, r, "")
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.Get(r.Context(), id); !ok {
		NotFoundError("Expense not found").Write(w)
		return
	}
	s.submitExpense(w, r, id)
}

// submitExpense parses the body as an expense form and creates (id empty)
// or replaces the record.
func (s *Server) submitExpense(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError().Write(w)
			return
		}
		BadRequestError("Malformed request body").Write(w)
		return
	}

	in := p.ExpenseForm(id)
	sub, err := form.Parse(in)
	if err != nil {
		logger.InfoContext(ctx, "Expense form rejected",
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err)
		UnprocessableEntityError(form.ErrInvalid.Error()).Write(w)
		return
	}

	saved, err := form.Submit(ctx, s.store, sub)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			UnprocessableEntityError(form.ErrInvalid.Error()).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Expense submit failed",
			applog.FieldExpenseID, id,
			applog.FieldError, err)
		InternalServerError("Could not save the expense").Write(w)
		return
	}

	op := applog.OpCreate
	status := http.StatusCreated
	if sub.IsEdit() {
		op, status = applog.OpUpdate, http.StatusOK
	}
	logger.InfoContext(ctx, "Expense saved",
		append([]any{applog.FieldOperation, op},
			applog.NewFields().
				WithExpense(saved.ID, saved.Title, saved.Amount.String(), saved.Category, saved.Date.String()).
				ToSlice()...)...)

	resp := NewResponse().Status(status).JSON(toResponse(saved))
	if status == http.StatusCreated {
		resp.Header("Location", "/api/expenses/"+saved.ID)
	}
	resp.Write(w)
}

// handleDeleteExpense is idempotent: deleting an unknown id succeeds.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.Delete(r.Context(), id)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}
