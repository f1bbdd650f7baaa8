package app

import (
	"context"
	"errors"

	"github.com/facturo/facturo/domain/numbering"
	"github.com/facturo/facturo/ports"
)

const (
	invoicePrefix  = "INV"
	estimatePrefix = "EST"

	// Two concurrent creations for the same business can race on the
	// read-last-increment scheme; the unique index on (business,
	// number) detects the loser, which re-reads and retries.
	numberAttempts = 3
)

// allocateNumber derives the next document number and hands it to
// create, retrying on a duplicate-number conflict. Returns the number
// that was committed, or ErrConflict once attempts are exhausted.
func allocateNumber(
	ctx context.Context,
	prefix string,
	last func(context.Context) (string, error),
	create func(context.Context, string) error,
) (string, error) {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		prev, err := last(ctx)
		if err != nil {
			return "", err
		}

		number := numbering.Next(prev, prefix)
		err = create(ctx, number)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, ports.ErrDuplicate) {
			return "", err
		}
	}
	return "", ErrConflict
}
