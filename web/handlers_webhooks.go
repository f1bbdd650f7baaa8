package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/planlimit"
	"github.com/facturo/facturo/ports"
)

// StripeWebhook receives subscription lifecycle events from Stripe.
// Authenticity comes from signature verification, not from the
// identity headers.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		http.Error(w, "payments disabled", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read webhook body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	err = h.billing.HandleWebhook(r.Context(), body, signature)
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrNotFound):
		// Event for an owner with no business here; acknowledge so the
		// provider stops retrying.
		h.logger.Debug().Msg("payment event for unknown owner")
	default:
		h.logger.Warn().Err(err).Msg("rejected payment webhook")
		http.Error(w, "invalid webhook", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type emailEventRequest struct {
	InvoiceID string `json:"invoice_id"`
	Event     string `json:"event"`
}

// EmailWebhook folds provider delivery events into invoice email
// tracking. The event vocabulary is provider agnostic; the caller
// translates its provider's names.
func (h *Handler) EmailWebhook(w http.ResponseWriter, r *http.Request) {
	var req emailEventRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.InvoiceID == "" || req.Event == "" {
		h.badRequest(w, "invoice_id and event are required")
		return
	}

	err := h.invoices.RecordEmailEvent(r.Context(), req.InvoiceID, app.EmailEvent(req.Event))
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrNotFound):
		// Unknown invoice: acknowledge so the provider stops retrying.
		h.logger.Debug().Str("invoice_id", req.InvoiceID).Msg("email event for unknown invoice")
	default:
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.EmailEvents.WithLabelValues(req.Event).Inc()
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type checkoutRequest struct {
	Plan       string `json:"plan"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type portalRequest struct {
	CustomerID string `json:"customer_id"`
	ReturnURL  string `json:"return_url"`
}

type sessionResponse struct {
	URL string `json:"url"`
}

// BillingCheckout starts a subscription checkout for the caller.
func (h *Handler) BillingCheckout(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		http.Error(w, "payments disabled", http.StatusNotFound)
		return
	}

	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	id := getIdentity(r.Context())
	url, err := h.billing.Checkout(r.Context(), id.UserID, planlimit.Plan(req.Plan), req.SuccessURL, req.CancelURL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{URL: url})
}

// BillingPortal opens the caller's subscription management portal.
func (h *Handler) BillingPortal(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		http.Error(w, "payments disabled", http.StatusNotFound)
		return
	}

	var req portalRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	url, err := h.billing.Portal(r.Context(), req.CustomerID, req.ReturnURL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{URL: url})
}
