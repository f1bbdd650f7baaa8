// Package planlimit provides pure functions for subscription plan
// invoice limits.
package planlimit

import "time"

// Plan is the caller's subscription tier, supplied by the identity
// provider and trusted as given.
type Plan string

const (
	Free         Plan = "free_user"
	Professional Plan = "professional"
	Enterprise   Plan = "enterprise"
)

// Free tier allows a single invoice ever; professional allows a fixed
// count per calendar month. The marketing site once promised 3/month on
// free; the enforced gate is authoritative.
const (
	FreeLifetimeLimit        = 1
	ProfessionalMonthlyLimit = 15
)

// Known reports whether p is a recognized plan.
func Known(p Plan) bool {
	switch p {
	case Free, Professional, Enterprise:
		return true
	}
	return false
}

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed bool
	Limit   int64 // limit that was hit, -1 when unlimited
}

// Check decides whether an author may create another invoice.
// lifetimeCount is the author's total invoice count; monthCount is the
// count within the current calendar month. Unknown plans are treated as
// free tier. This is a PURE function.
func Check(p Plan, lifetimeCount, monthCount int64) Decision {
	switch p {
	case Enterprise:
		return Decision{Allowed: true, Limit: -1}
	case Professional:
		return Decision{Allowed: monthCount < ProfessionalMonthlyLimit, Limit: ProfessionalMonthlyLimit}
	default:
		return Decision{Allowed: lifetimeCount < FreeLifetimeLimit, Limit: FreeLifetimeLimit}
	}
}

// MonthBounds returns the calendar-month window containing t:
// first instant of the month inclusive to first instant of the next
// month exclusive. This is a PURE function.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0)
	return
}
