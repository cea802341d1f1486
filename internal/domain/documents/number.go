package documents

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/numerator"
)

// NumeratorStrategy is used for all stock documents. Business ids must be gapless.
var NumeratorStrategy = numerator.StrategyStrict

// NextNumber allocates the next business id for prefix, e.g. "DO-2026-00007".
func NextNumber(ctx context.Context, gen numerator.Generator, prefix string, at time.Time) (string, error) {
	number, err := gen.GetNextNumber(ctx, numerator.DefaultConfig(prefix), &numerator.Options{Strategy: NumeratorStrategy}, at)
	if err != nil {
		return "", fmt.Errorf("generate number: %w", err)
	}
	return number, nil
}
