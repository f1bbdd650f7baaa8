package web

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/money"
)

// Response shapes. Domain types stay JSON-agnostic; the wire format is
// owned here.

type businessView struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	TaxID     string    `json:"tax_id,omitempty"`
	Currency  string    `json:"currency"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBusinessView(b document.Business) businessView {
	return businessView{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Name:      b.Name,
		Email:     b.Email,
		Address:   b.Address,
		Phone:     b.Phone,
		TaxID:     b.TaxID,
		Currency:  b.Currency,
		Plan:      b.Plan,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type clientView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toClientView(c document.Client) clientView {
	return clientView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type invoiceView struct {
	ID               string                 `json:"id"`
	ClientID         string                 `json:"client_id"`
	Number           string                 `json:"number"`
	Items            []money.LineItem       `json:"items"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	DiscountPct      decimal.Decimal        `json:"discount_pct"`
	Shipping         decimal.Decimal        `json:"shipping"`
	Total            decimal.Decimal        `json:"total"`
	Currency         string                 `json:"currency"`
	IssueDate        time.Time              `json:"issue_date"`
	DueDate          time.Time              `json:"due_date"`
	Status           string                 `json:"status"`
	Overdue          bool                   `json:"overdue"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	BankDetails      string                 `json:"bank_details,omitempty"`
	Company          document.Company       `json:"company"`
	BillTo           document.Party         `json:"bill_to"`
	PublicToken      string                 `json:"public_token,omitempty"`
	SourceEstimateID string                 `json:"source_estimate_id,omitempty"`
	SourceTemplateID string                 `json:"source_template_id,omitempty"`
	Email            document.EmailTracking `json:"email_tracking"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func (h *Handler) toInvoiceView(inv document.Invoice) invoiceView {
	return invoiceView{
		ID:               inv.ID,
		ClientID:         inv.ClientID,
		Number:           inv.Number,
		Items:            inv.Items,
		Subtotal:         inv.Subtotal,
		DiscountPct:      inv.DiscountPct,
		Shipping:         inv.Shipping,
		Total:            inv.Total,
		Currency:         inv.Currency,
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		Status:           string(inv.Status),
		Overdue:          h.invoices.Overdue(inv),
		PaidAt:           inv.PaidAt,
		Notes:            inv.Notes,
		BankDetails:      inv.BankDetails,
		Company:          inv.Company,
		BillTo:           inv.BillTo,
		PublicToken:      inv.PublicToken,
		SourceEstimateID: inv.SourceEstimateID,
		SourceTemplateID: inv.SourceTemplateID,
		Email:            inv.Email,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

// toPublicInvoiceView strips tenant internals from the shared document.
func (h *Handler) toPublicInvoiceView(inv document.Invoice) invoiceView {
	v := h.toInvoiceView(inv)
	v.PublicToken = ""
	v.Email = document.EmailTracking{}
	return v
}

type estimateView struct {
	ID                   string           `json:"id"`
	ClientID             string           `json:"client_id"`
	Number               string           `json:"number"`
	Items                []money.LineItem `json:"items"`
	Subtotal             decimal.Decimal  `json:"subtotal"`
	DiscountPct          decimal.Decimal  `json:"discount_pct"`
	Shipping             decimal.Decimal  `json:"shipping"`
	Total                decimal.Decimal  `json:"total"`
	Currency             string           `json:"currency"`
	IssueDate            time.Time        `json:"issue_date"`
	ValidUntil           time.Time        `json:"valid_until"`
	Status               string           `json:"status"`
	Notes                string           `json:"notes,omitempty"`
	BankDetails          string           `json:"bank_details,omitempty"`
	Company              document.Company `json:"company"`
	BillTo               document.Party   `json:"bill_to"`
	PublicToken          string           `json:"public_token,omitempty"`
	ConvertedToInvoiceID string           `json:"converted_to_invoice_id,omitempty"`
	ConvertedAt          *time.Time       `json:"converted_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func toEstimateView(e document.Estimate) estimateView {
	return estimateView{
		ID:                   e.ID,
		ClientID:             e.ClientID,
		Number:               e.Number,
		Items:                e.Items,
		Subtotal:             e.Subtotal,
		DiscountPct:          e.DiscountPct,
		Shipping:             e.Shipping,
		Total:                e.Total,
		Currency:             e.Currency,
		IssueDate:            e.IssueDate,
		ValidUntil:           e.ValidUntil,
		Status:               string(e.Status),
		Notes:                e.Notes,
		BankDetails:          e.BankDetails,
		Company:              e.Company,
		BillTo:               e.BillTo,
		PublicToken:          e.PublicToken,
		ConvertedToInvoiceID: e.ConvertedToInvoiceID,
		ConvertedAt:          e.ConvertedAt,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func toPublicEstimateView(e document.Estimate) estimateView {
	v := toEstimateView(e)
	v.PublicToken = ""
	return v
}

type recurringView struct {
	ID                string           `json:"id"`
	ClientID          string           `json:"client_id"`
	Items             []money.LineItem `json:"items"`
	Notes             string           `json:"notes,omitempty"`
	BankDetails       string           `json:"bank_details,omitempty"`
	Currency          string           `json:"currency"`
	DiscountPct       decimal.Decimal  `json:"discount_pct"`
	Shipping          decimal.Decimal  `json:"shipping"`
	Frequency         string           `json:"frequency"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	DayOfMonth        int              `json:"day_of_month,omitempty"`
	DayOfWeek         *int             `json:"day_of_week,omitempty"`
	PaymentTermsDays  int              `json:"payment_terms_days"`
	AutoSend          bool             `json:"auto_send"`
	Status            string           `json:"status"`
	NextInvoiceDate   time.Time        `json:"next_invoice_date"`
	InvoicesGenerated int              `json:"invoices_generated"`
	LastInvoiceID     string           `json:"last_invoice_id,omitempty"`
	LastGeneratedAt   *time.Time       `json:"last_generated_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func toRecurringView(t document.RecurringInvoice) recurringView {
	var dow *int
	if t.DayOfWeek != nil {
		d := int(*t.DayOfWeek)
		dow = &d
	}
	return recurringView{
		ID:                t.ID,
		ClientID:          t.ClientID,
		Items:             t.Items,
		Notes:             t.Notes,
		BankDetails:       t.BankDetails,
		Currency:          t.Currency,
		DiscountPct:       t.DiscountPct,
		Shipping:          t.Shipping,
		Frequency:         string(t.Frequency),
		StartDate:         t.StartDate,
		EndDate:           t.EndDate,
		DayOfMonth:        t.DayOfMonth,
		DayOfWeek:         dow,
		PaymentTermsDays:  t.PaymentTermsDays,
		AutoSend:          t.AutoSend,
		Status:            string(t.Status),
		NextInvoiceDate:   t.NextInvoiceDate,
		InvoicesGenerated: t.InvoicesGenerated,
		LastInvoiceID:     t.LastInvoiceID,
		LastGeneratedAt:   t.LastGeneratedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func toInvoiceViews(h *Handler, invs []document.Invoice) []invoiceView {
	out := make([]invoiceView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, h.toInvoiceView(inv))
	}
	return out
}

func toEstimateViews(ests []document.Estimate) []estimateView {
	out := make([]estimateView, 0, len(ests))
	for _, e := range ests {
		out = append(out, toEstimateView(e))
	}
	return out
}

func toRecurringViews(tmpls []document.RecurringInvoice) []recurringView {
	out := make([]recurringView, 0, len(tmpls))
	for _, t := range tmpls {
		out = append(out, toRecurringView(t))
	}
	return out
}

func toClientViews(clients []document.Client) []clientView {
	out := make([]clientView, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientView(c))
	}
	return out
}
