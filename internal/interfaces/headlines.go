package interfaces

import (
	"context"

	"growdash/internal/types"
)

// HeadlineProvider supplies recent market headlines for a symbol, used to
// give the copilot current context. Implementations may return an empty
// slice; advice generation never depends on headlines being available.
type HeadlineProvider interface {
	Headlines(ctx context.Context, symbol string, max int) ([]types.Headline, error)
}
