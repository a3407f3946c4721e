package interfaces

import (
	"context"
	"errors"

	"growdash/internal/types"
)

// ErrEmptyQuestion is returned by Advise when the question is blank after
// trimming. Callers treat it as client input, not an advisor failure.
var ErrEmptyQuestion = errors.New("question is required")

// Advisor answers a trader's question from the current analytics snapshot.
type Advisor interface {
	Advise(ctx context.Context, question string, analytics types.Analytics) (types.Advice, error)
}
