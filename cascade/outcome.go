package cascade

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tilawa-cli/tilawa/util"
)

// Outcome is how a single probe settled.
type Outcome int

const (
	Success Outcome = iota
	Timeout
	FetchError
	DecodeError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case FetchError:
		return "fetch_error"
	case DecodeError:
		return "decode_error"
	default:
		return "unknown"
	}
}

// MarshalText keeps JSON diagnostics readable.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Per-candidate failures. They never leave Resolve on their own; they are recorded in
// the attempt list and only surface through ExhaustedError.
var (
	ErrTimeout = errors.New("probe timed out")
	ErrFetch   = errors.New("mirror could not be fetched")
	ErrDecode  = errors.New("mirror stream could not be decoded")
)

// ErrExhausted is matched by every ExhaustedError.
var ErrExhausted = errors.New("no working source found for this track")

// Attempt records one probe for diagnostics.
type Attempt struct {
	Index    int           `json:"index" jsonschema:"description=Position of the candidate in the cascade."`
	Locator  string        `json:"locator"`
	Provider string        `json:"provider"`
	Outcome  Outcome       `json:"outcome" jsonschema:"type=string,enum=success,enum=timeout,enum=fetch_error,enum=decode_error"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Err      error         `json:"-"`
}

// Reason is the human readable failure cause, empty on success.
func (a Attempt) Reason() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}

// ExhaustedError is returned when every candidate failed.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s (%s tried)", ErrExhausted, util.Quantify(len(e.Attempts), "mirror", "mirrors"))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Summary lists every attempt on its own line.
func (e *ExhaustedError) Summary() string {
	var b strings.Builder
	b.WriteString(ErrExhausted.Error())
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %d. %s: %s (%s)", a.Index+1, a.Locator, a.Outcome, a.Elapsed.Round(time.Millisecond))
	}
	return b.String()
}
