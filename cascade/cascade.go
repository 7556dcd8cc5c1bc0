// Package cascade resolves a list of candidate mirrors into one confirmed-playable locator.
//
// Candidates are probed one at a time, in order, each probe raced against its own
// timeout. The first healthy mirror wins; individual failures are absorbed and only
// exhaustion of the whole list is reported.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/track"
)

// DefaultTimeout bounds a single probe when Options.Timeout is unset.
const DefaultTimeout = 8 * time.Second

// teardownGrace is how long a cancelled probe may take to release its resource before
// the cascade moves on without it.
var teardownGrace = 2 * time.Second

// Prober checks whether a locator is ready to play.
//
// Probe returns nil once the locator is confirmed playable. Errors wrapping ErrDecode
// mean the stream was reachable but malformed; any other error is a fetch failure.
// Implementations must release everything they opened when ctx is done.
type Prober interface {
	Probe(ctx context.Context, locator string) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, locator string) error

func (f ProberFunc) Probe(ctx context.Context, locator string) error {
	return f(ctx, locator)
}

// Options tunes a resolution run.
type Options struct {
	// Timeout per candidate. Zero means DefaultTimeout.
	Timeout time.Duration
	// OnAttempt is called after each settled probe, never after cancellation.
	OnAttempt func(Attempt)
}

// Resolution is a successful run.
type Resolution struct {
	Candidate track.Candidate
	Attempts  []Attempt
}

// Locator returns the winning locator.
func (r *Resolution) Locator() string {
	return r.Candidate.Locator
}

// Resolve probes candidates sequentially until one succeeds.
//
// It returns *ExhaustedError when all candidates fail, including when there are none.
// If ctx is cancelled the in-flight probe is torn down, no further candidates are
// tried and ctx.Err() is returned without a Resolution.
func Resolve(ctx context.Context, candidates []track.Candidate, prober Prober, opts Options) (*Resolution, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attempts := make([]Attempt, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt := probe(ctx, prober, i, c, timeout)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempts = append(attempts, attempt)
		log.WithFields(logrus.Fields{
			"index":   attempt.Index,
			"locator": attempt.Locator,
			"outcome": attempt.Outcome.String(),
			"elapsed": attempt.Elapsed.String(),
		}).Debug("probe settled")

		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt)
		}

		if attempt.Outcome == Success {
			return &Resolution{Candidate: c, Attempts: attempts}, nil
		}
	}

	log.Warnf("cascade exhausted after %d candidates", len(attempts))
	return nil, &ExhaustedError{Attempts: attempts}
}

// probe runs one candidate against its timeout; whichever settles first wins.
func probe(ctx context.Context, prober Prober, index int, c track.Candidate, timeout time.Duration) Attempt {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- prober.Probe(pctx, c.Locator)
	}()

	var err error
	select {
	case err = <-done:
	case <-pctx.Done():
		cancel()
		select {
		case <-done:
		case <-time.After(teardownGrace):
			log.Warnf("probe for %s ignored cancellation", c.Locator)
		}
		err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	outcome, err := classify(err)
	return Attempt{
		Index:    index,
		Locator:  c.Locator,
		Provider: c.Provider,
		Outcome:  outcome,
		Elapsed:  time.Since(start),
		Err:      err,
	}
}

func classify(err error) (Outcome, error) {
	switch {
	case err == nil:
		return Success, nil
	case errors.Is(err, ErrTimeout):
		return Timeout, err
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout, fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, ErrDecode):
		return DecodeError, err
	case errors.Is(err, ErrFetch):
		return FetchError, err
	default:
		return FetchError, fmt.Errorf("%w: %v", ErrFetch, err)
	}
}
