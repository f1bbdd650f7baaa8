// Package lifecycle governs document status transitions.
// Only status moves are constrained here; field-level mutability after
// creation is a product policy enforced by the app layer.
package lifecycle

import "time"

// InvoiceStatus represents invoice state.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions maps each state to the states it may move to.
// A re-send (sent -> sent) is permitted as a no-op transition.
// Overdue is never stored; see IsOverdue.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft: {InvoiceSent},
	InvoiceSent:  {InvoiceSent, InvoicePaid, InvoiceCancelled},
}

// ValidInvoiceStatus reports whether s is a known invoice status.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceCancelled:
		return true
	}
	return false
}

// CanTransitionInvoice reports whether an invoice may move from one
// status to another. This is a PURE function.
func CanTransitionInvoice(from, to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvoiceTerminal reports whether the status admits no further moves.
func InvoiceTerminal(s InvoiceStatus) bool {
	return s == InvoicePaid || s == InvoiceCancelled
}

// IsOverdue computes the overdue projection at read time: a sent
// invoice whose due date has passed. Overdue is display state, not a
// stored transition.
func IsOverdue(s InvoiceStatus, dueDate, now time.Time) bool {
	return s == InvoiceSent && dueDate.Before(now)
}

// EstimateStatus represents estimate state.
type EstimateStatus string

const (
	EstimateDraft     EstimateStatus = "draft"
	EstimateSent      EstimateStatus = "sent"
	EstimateViewed    EstimateStatus = "viewed"
	EstimateAccepted  EstimateStatus = "accepted"
	EstimateRejected  EstimateStatus = "rejected"
	EstimateConverted EstimateStatus = "converted"
)

// sent -> viewed happens via an explicit MarkViewed call after a public
// fetch, never as a side effect of the read itself.
var estimateTransitions = map[EstimateStatus][]EstimateStatus{
	EstimateDraft:    {EstimateSent},
	EstimateSent:     {EstimateViewed},
	EstimateViewed:   {EstimateAccepted, EstimateRejected},
	EstimateAccepted: {EstimateConverted},
}

// ValidEstimateStatus reports whether s is a known estimate status.
func ValidEstimateStatus(s EstimateStatus) bool {
	switch s {
	case EstimateDraft, EstimateSent, EstimateViewed, EstimateAccepted, EstimateRejected, EstimateConverted:
		return true
	}
	return false
}

// CanTransitionEstimate reports whether an estimate may move from one
// status to another. This is a PURE function.
func CanTransitionEstimate(from, to EstimateStatus) bool {
	for _, next := range estimateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EstimateTerminal reports whether the status admits no further moves.
func EstimateTerminal(s EstimateStatus) bool {
	return s == EstimateRejected || s == EstimateConverted
}
