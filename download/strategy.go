package download

import (
	"context"
	"fmt"
)

// Strategy is one self-contained way of getting a video onto local disk.
// A strategy either produces the file at destPath or fails without
// leaving partial output there. Strategies are substitutable; the
// Acquirer tries them in priority order.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, videoID, destPath string) error
}

// AttemptError records one strategy's failure for diagnostic surfacing.
// Individual failures are absorbed; only the aggregate escalates.
type AttemptError struct {
	Strategy string
	Err      error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}
