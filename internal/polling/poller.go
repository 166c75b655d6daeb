// Package polling waits for a generation job to reach a terminal state.
package polling

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/types"
)

// StatusQuerier issues one status query.
type StatusQuerier interface {
	GetStatus(ctx context.Context, jobID string) (*types.JobResult, error)
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller queries a job at a fixed interval until it is terminal or the attempt budget is spent.
type Poller struct {
	Querier     StatusQuerier
	Interval    time.Duration
	MaxAttempts int
	Sleeper     Sleeper
	Logger      logging.Logger
}

// Wait polls jobID. It returns the first terminal result, including unrecognized states.
//
// Non-terminal results and transport faults consume one attempt each and are followed by a
// sleep when attempts remain. Any other fault aborts immediately. When the budget is spent a
// timeout fault is returned whose Elapsed is MaxAttempts × Interval.
func (p *Poller) Wait(ctx context.Context, jobID string) (*types.JobResult, error) {
	const op = "poll status"

	if p.MaxAttempts < 1 {
		return nil, faults.Config(op, "max attempts must be at least 1")
	}
	sleeper := p.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	log := p.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("job_id", jobID)

	log.Info("Polling for PDF generation status...", "interval", p.Interval.String(), "max_attempts", p.MaxAttempts)

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := p.Querier.GetStatus(ctx, jobID)
		switch {
		case err == nil:
			lastErr = nil
			log.Info(fmt.Sprintf("Status check %d/%d: %s", attempt, p.MaxAttempts, result.Status))
			if result.Status.IsTerminal() {
				if !result.Status.IsKnown() {
					log.Warn("Unrecognized job status, treating as terminal", "status", string(result.Status))
				}
				return result, nil
			}
		case faults.Is(err, faults.KindTransport):
			lastErr = err
			log.Warn(fmt.Sprintf("Status check %d/%d failed", attempt, p.MaxAttempts), "error", err)
		default:
			log.Error("Status check failed", "attempt", attempt, "error", err)
			return nil, err
		}

		if attempt < p.MaxAttempts {
			if err := sleeper.Sleep(ctx, p.Interval); err != nil {
				return nil, err
			}
		}
	}

	elapsed := time.Duration(p.MaxAttempts) * p.Interval
	log.Error("Polling timed out", "attempts", p.MaxAttempts, "elapsed", elapsed.String())
	return nil, faults.Timeout(op, fmt.Sprintf("timeout waiting for PDF generation after %d attempts (%s)", p.MaxAttempts, elapsed), elapsed, lastErr)
}
