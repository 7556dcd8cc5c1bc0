// Package inline implements the non-interactive resolve mode: it runs the candidate
// cascade for a range of surahs and reports the outcome as text or JSON.
package inline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/candidate"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/log"
)

// Run resolves every selected surah in order. A surah without a working mirror is
// reported, not returned as an error; only cancellation stops the run early.
func Run(ctx context.Context, options *Options) error {
	if options.Out == nil {
		options.Out = os.Stdout
	}
	if options.Provider == nil {
		return errors.New("no provider selected")
	}

	var resolutions []*Resolution
	for _, surah := range options.Surahs {
		res, err := resolveOne(ctx, surah, options)
		if err != nil {
			return err
		}

		if !options.Json {
			writeText(options.Out, res, options.CandidatesOnly)
		}
		resolutions = append(resolutions, res)
	}

	if options.Json {
		return writeJson(options.Out, options.Provider.Name, resolutions)
	}
	return nil
}

func resolveOne(ctx context.Context, surah int, options *Options) (*Resolution, error) {
	req, err := options.Provider.Request(surah)
	if err != nil {
		return nil, err
	}

	candidates := candidate.BuildWith(req, options.Candidates)
	res := &Resolution{
		Surah:      surah,
		Track:      req.Track(),
		Candidates: candidates,
	}

	if options.CandidatesOnly {
		return res, nil
	}

	resolution, err := cascade.Resolve(ctx, candidates, options.Prober, cascade.Options{
		Timeout: options.Timeout,
	})

	switch {
	case err == nil:
		res.Locator = resolution.Locator()
		res.Attempts = withReasons(resolution.Attempts)
	case errors.Is(err, cascade.ErrExhausted):
		var exhausted *cascade.ExhaustedError
		if errors.As(err, &exhausted) {
			res.Attempts = withReasons(exhausted.Attempts)
		}
		res.Error = cascade.ErrExhausted.Error()
		log.Warnf("%s: %v", req.Title, err)
	default:
		return nil, err
	}

	return res, nil
}

func withReasons(attempts []cascade.Attempt) []Attempt {
	return lo.Map(attempts, func(a cascade.Attempt, _ int) Attempt {
		return Attempt{Attempt: a, Reason: a.Reason()}
	})
}

// writeText prints one locator per line, or the candidates when probing was skipped.
// Unresolved surahs go to the log and leave a commented line.
func writeText(out io.Writer, res *Resolution, candidatesOnly bool) {
	if candidatesOnly {
		for _, c := range res.Candidates {
			fmt.Fprintln(out, c.Locator)
		}
		return
	}

	if res.Locator == "" {
		fmt.Fprintf(out, "# %s: %s\n", res.Track, res.Error)
		return
	}
	fmt.Fprintln(out, res.Locator)
}

func writeJson(out io.Writer, providerName string, resolutions []*Resolution) error {
	data, err := asJson(providerName, resolutions)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
