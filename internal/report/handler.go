package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"learnportal/internal/app/apiresp"
	"learnportal/internal/quizbank"
)

type summaryService interface {
	SummaryByModule(ctx context.Context, moduleID int64) (*ModuleSummary, error)
}

type Handler struct {
	svc summaryService
}

func NewHandler(svc summaryService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/reports/modules/{moduleID}", h.Summary)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	moduleID, err := strconv.ParseInt(chi.URLParam(r, "moduleID"), 10, 64)
	if err != nil || moduleID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid moduleID")
		return
	}

	sum, err := h.svc.SummaryByModule(r.Context(), moduleID)
	if err != nil {
		if errors.Is(err, quizbank.ErrInvalidInput) {
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, sum)
}
