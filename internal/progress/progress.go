// Package progress holds the cooperative-step contract shared by the long
// running phases: each step checks for cancellation and reports a fraction.
package progress

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled is returned when a caller aborts a cooperative phase.
var ErrCancelled = errors.New("cancelled")

// Progress describes how far a phase has advanced.
type Progress struct {
	Phase   string
	Done    int
	Total   int
	Current string
}

// Fraction returns Done/Total in [0, 1]. An empty phase counts as complete.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	f := float64(p.Done) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Reporter receives progress updates. A nil Reporter is valid.
type Reporter func(Progress)

// Report calls r if it is set.
func (r Reporter) Report(p Progress) {
	if r != nil {
		r(p)
	}
}

// Check returns a wrapped ErrCancelled once ctx is done.
func Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// Step reports p and then checks for cancellation.
func Step(ctx context.Context, r Reporter, p Progress) error {
	r.Report(p)
	return Check(ctx)
}
