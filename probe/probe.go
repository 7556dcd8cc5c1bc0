package probe

import (
	"fmt"
	"strings"

	"github.com/tilawa-cli/tilawa/cascade"
)

const (
	KindHTTP = "http"
	KindMPV  = "mpv"
)

// Kinds lists the accepted values of resolver.prober.
var Kinds = []string{KindHTTP, KindMPV}

// New returns the prober named by kind. binary is only used by the mpv prober.
func New(kind, binary string) (cascade.Prober, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindHTTP, "":
		return NewHTTP(), nil
	case KindMPV:
		return NewMPV(binary), nil
	default:
		return nil, fmt.Errorf("unknown prober %q, expected one of %s", kind, strings.Join(Kinds, ", "))
	}
}
