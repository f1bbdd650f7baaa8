// Package schedule computes recurring billing dates.
// NextOccurrence is deterministic: identical inputs always produce
// identical dates, because these dates drive customer charges.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Frequency is how often a recurring template fires.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ErrUnknownFrequency is returned for a frequency outside the enum.
var ErrUnknownFrequency = errors.New("unknown frequency")

// Valid reports whether f is a known frequency.
func Valid(f Frequency) bool {
	switch f {
	case Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Anchors carries the optional day anchors a frequency may use.
// DayOfMonth 0 means unset; DayOfWeek nil means unset.
type Anchors struct {
	DayOfMonth int
	DayOfWeek  *time.Weekday
}

// NextOccurrence returns the occurrence strictly after ref.
//
//   - weekly: next occurrence of DayOfWeek after ref; a ref already on
//     that weekday advances a full 7 days. Without an anchor, +7 days.
//   - biweekly: +14 days, anchors ignored.
//   - monthly/quarterly: +1/+3 months with the day clamped to the last
//     day of the target month (anchor day 31 in a 30-day month lands on
//     30). Without an anchor the reference day is the anchor.
//   - yearly: +1 year, same month and day.
//
// Results are normalized to UTC midnight. This is a PURE function.
func NextOccurrence(ref time.Time, f Frequency, a Anchors) (time.Time, error) {
	ref = midnight(ref)

	switch f {
	case Weekly:
		if a.DayOfWeek == nil {
			return ref.AddDate(0, 0, 7), nil
		}
		days := (int(*a.DayOfWeek) - int(ref.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return ref.AddDate(0, 0, days), nil

	case Biweekly:
		return ref.AddDate(0, 0, 14), nil

	case Monthly:
		return addMonthsClamped(ref, 1, a.DayOfMonth), nil

	case Quarterly:
		return addMonthsClamped(ref, 3, a.DayOfMonth), nil

	case Yearly:
		return ref.AddDate(1, 0, 0), nil

	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, f)
	}
}

// addMonthsClamped advances by months keeping the anchor day, clamped
// to the target month's length. time.Time.AddDate would normalize
// Jan 31 + 1 month into Mar 3; billing dates must land in February.
func addMonthsClamped(ref time.Time, months, anchorDay int) time.Time {
	if anchorDay <= 0 {
		anchorDay = ref.Day()
	}

	year, month, _ := ref.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)

	day := anchorDay
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in a month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
