package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/money"
	"github.com/facturo/facturo/domain/schedule"
)

type recurringCreateRequest struct {
	ClientID         string           `json:"client_id"`
	Items            []money.LineItem `json:"items"`
	Notes            string           `json:"notes"`
	BankDetails      string           `json:"bank_details"`
	Currency         string           `json:"currency"`
	DiscountPct      decimal.Decimal  `json:"discount_pct"`
	Shipping         decimal.Decimal  `json:"shipping"`
	Frequency        string           `json:"frequency"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          *time.Time       `json:"end_date"`
	DayOfMonth       int              `json:"day_of_month"`
	DayOfWeek        *int             `json:"day_of_week"`
	PaymentTermsDays int              `json:"payment_terms_days"`
	AutoSend         bool             `json:"auto_send"`
}

// RecurringCreate stores a new active recurring template.
func (h *Handler) RecurringCreate(w http.ResponseWriter, r *http.Request) {
	var req recurringCreateRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var dow *time.Weekday
	if req.DayOfWeek != nil {
		d := time.Weekday(*req.DayOfWeek)
		dow = &d
	}

	id := getIdentity(r.Context())
	tmpl, err := h.recurring.Create(r.Context(), id.UserID, app.CreateRecurringInput{
		BusinessID:       b.ID,
		ClientID:         req.ClientID,
		Items:            req.Items,
		Notes:            req.Notes,
		BankDetails:      req.BankDetails,
		Currency:         req.Currency,
		DiscountPct:      req.DiscountPct,
		Shipping:         req.Shipping,
		Frequency:        schedule.Frequency(req.Frequency),
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		DayOfMonth:       req.DayOfMonth,
		DayOfWeek:        dow,
		PaymentTermsDays: req.PaymentTermsDays,
		AutoSend:         req.AutoSend,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecurringView(tmpl))
}

// RecurringList returns all templates of the caller's business.
func (h *Handler) RecurringList(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	tmpls, err := h.recurring.List(r.Context(), b.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecurringViews(tmpls))
}

// RecurringGet returns one template scoped to the caller's business.
func (h *Handler) RecurringGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	tmpl, err := h.recurring.Get(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecurringView(tmpl))
}

// RecurringPause suspends an active template.
func (h *Handler) RecurringPause(w http.ResponseWriter, r *http.Request) {
	h.recurringSetStatus(w, r, h.recurring.Pause)
}

// RecurringResume reactivates a paused template.
func (h *Handler) RecurringResume(w http.ResponseWriter, r *http.Request) {
	h.recurringSetStatus(w, r, h.recurring.Resume)
}

func (h *Handler) recurringSetStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, businessID, id string) error) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := op(r.Context(), b.ID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	tmpl, err := h.recurring.Get(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecurringView(tmpl))
}

// RecurringGenerate fires a template immediately regardless of its
// schedule.
func (h *Handler) RecurringGenerate(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.recurring.Generate(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecurringErrors.Inc()
		}
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecurringFired.Inc()
		h.metrics.InvoicesCreated.WithLabelValues("recurring").Inc()
	}
	writeJSON(w, http.StatusCreated, h.toInvoiceView(inv))
}
