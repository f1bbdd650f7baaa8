// Package numbering derives sequential document numbers (INV0042,
// EST0007). All functions are deterministic with no side effects;
// race-safe allocation is the storage layer's job.
package numbering

import (
	"fmt"
	"regexp"
	"strconv"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Parse extracts the trailing digit run of a document number.
// A missing or unparseable suffix yields 0 rather than an error so a
// malformed stored number never blocks document creation.
func Parse(number string) int {
	m := trailingDigits.FindStringSubmatch(number)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Digit run too long for an int; restart the sequence.
		return 0
	}
	return n
}

// Format renders a sequence value with the given prefix, zero-padded to
// a minimum of 4 digits. Values past 9999 keep growing, they never wrap.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

// Next returns the number following last for the given prefix.
// An empty last (no prior documents) yields prefix + "0001".
func Next(last, prefix string) string {
	return Format(prefix, Parse(last)+1)
}
