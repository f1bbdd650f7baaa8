package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/domain/money"
)

type invoiceCreateRequest struct {
	ClientID    string           `json:"client_id"`
	Items       []money.LineItem `json:"items"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
	Shipping    decimal.Decimal  `json:"shipping"`
	Currency    string           `json:"currency"`
	IssueDate   time.Time        `json:"issue_date"`
	DueDate     time.Time        `json:"due_date"`
	Notes       string           `json:"notes"`
	BankDetails string           `json:"bank_details"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type detailsRequest struct {
	Notes       string `json:"notes"`
	BankDetails string `json:"bank_details"`
}

// InvoiceCreate creates an invoice under the caller's plan limit.
func (h *Handler) InvoiceCreate(w http.ResponseWriter, r *http.Request) {
	var req invoiceCreateRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	id := getIdentity(r.Context())
	inv, err := h.invoices.Create(r.Context(), id.UserID, h.callerPlan(r, b.Plan), app.CreateInvoiceInput{
		BusinessID:  b.ID,
		ClientID:    req.ClientID,
		Items:       req.Items,
		DiscountPct: req.DiscountPct,
		Shipping:    req.Shipping,
		Currency:    req.Currency,
		IssueDate:   req.IssueDate,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
		BankDetails: req.BankDetails,
	})
	if err != nil {
		h.countCreateFailure(err)
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InvoicesCreated.WithLabelValues("manual").Inc()
	}
	writeJSON(w, http.StatusCreated, h.toInvoiceView(inv))
}

// InvoiceList returns the caller's invoices, newest first.
func (h *Handler) InvoiceList(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	limit, offset := pageParams(r)
	invs, err := h.invoices.List(r.Context(), b.ID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceViews(h, invs))
}

// InvoiceGet returns one invoice scoped to the caller's business.
func (h *Handler) InvoiceGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.invoices.Get(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toInvoiceView(inv))
}

// InvoiceTransition moves an invoice through its lifecycle.
func (h *Handler) InvoiceTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.invoices.Transition(r.Context(), b.ID, chi.URLParam(r, "id"), lifecycle.InvoiceStatus(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Transitions.WithLabelValues("invoice", req.Status).Inc()
	}
	writeJSON(w, http.StatusOK, h.toInvoiceView(inv))
}

// InvoiceUpdateDetails edits the mutable fields of an issued invoice.
func (h *Handler) InvoiceUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.invoices.UpdateDetails(r.Context(), b.ID, chi.URLParam(r, "id"), req.Notes, req.BankDetails); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PublicInvoice serves the shared snapshot document by token.
func (h *Handler) PublicInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.GetPublic(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPublicInvoiceView(inv))
}

type estimateCreateRequest struct {
	ClientID    string           `json:"client_id"`
	Items       []money.LineItem `json:"items"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
	Shipping    decimal.Decimal  `json:"shipping"`
	Currency    string           `json:"currency"`
	ValidUntil  time.Time        `json:"valid_until"`
	Notes       string           `json:"notes"`
	BankDetails string           `json:"bank_details"`
}

// EstimateCreate creates an estimate. Estimates are not plan gated.
func (h *Handler) EstimateCreate(w http.ResponseWriter, r *http.Request) {
	var req estimateCreateRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	id := getIdentity(r.Context())
	est, err := h.estimates.Create(r.Context(), id.UserID, app.CreateEstimateInput{
		BusinessID:  b.ID,
		ClientID:    req.ClientID,
		Items:       req.Items,
		DiscountPct: req.DiscountPct,
		Shipping:    req.Shipping,
		Currency:    req.Currency,
		ValidUntil:  req.ValidUntil,
		Notes:       req.Notes,
		BankDetails: req.BankDetails,
	})
	if err != nil {
		h.countCreateFailure(err)
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.EstimatesCreated.Inc()
	}
	writeJSON(w, http.StatusCreated, toEstimateView(est))
}

// EstimateList returns the caller's estimates, newest first.
func (h *Handler) EstimateList(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	limit, offset := pageParams(r)
	ests, err := h.estimates.List(r.Context(), b.ID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEstimateViews(ests))
}

// EstimateGet returns one estimate scoped to the caller's business.
func (h *Handler) EstimateGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	est, err := h.estimates.Get(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEstimateView(est))
}

// EstimateTransition moves an estimate through its lifecycle.
func (h *Handler) EstimateTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	est, err := h.estimates.Transition(r.Context(), b.ID, chi.URLParam(r, "id"), lifecycle.EstimateStatus(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Transitions.WithLabelValues("estimate", req.Status).Inc()
	}
	writeJSON(w, http.StatusOK, toEstimateView(est))
}

// EstimateUpdateDetails edits the mutable fields of an issued estimate.
func (h *Handler) EstimateUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.estimates.UpdateDetails(r.Context(), b.ID, chi.URLParam(r, "id"), req.Notes, req.BankDetails); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EstimateConvert materializes an accepted estimate into a draft
// invoice.
func (h *Handler) EstimateConvert(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.estimates.Convert(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.countCreateFailure(err)
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Conversions.Inc()
		h.metrics.InvoicesCreated.WithLabelValues("conversion").Inc()
	}
	writeJSON(w, http.StatusCreated, h.toInvoiceView(inv))
}

// PublicEstimate serves the shared snapshot document by token and
// records the view.
func (h *Handler) PublicEstimate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	est, err := h.estimates.GetPublic(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The fetch succeeded, so record the view. A template that cannot
	// move to viewed (draft, terminal) is left alone.
	if err := h.estimates.MarkViewed(r.Context(), token); err != nil {
		h.logger.Debug().Err(err).Msg("estimate view not recorded")
	} else if est.Status == lifecycle.EstimateSent {
		est.Status = lifecycle.EstimateViewed
	}

	writeJSON(w, http.StatusOK, toPublicEstimateView(est))
}

// countCreateFailure folds creation failures into the relevant
// counters.
func (h *Handler) countCreateFailure(err error) {
	if h.metrics == nil {
		return
	}
	var limitErr *app.LimitExceededError
	if errors.As(err, &limitErr) {
		h.metrics.LimitRejections.WithLabelValues(limitErr.Plan).Inc()
	}
	if errors.Is(err, app.ErrConflict) {
		h.metrics.NumberConflicts.Inc()
	}
}

// pageParams parses limit/offset query parameters with sane bounds.
func pageParams(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
