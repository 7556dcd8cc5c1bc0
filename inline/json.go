package inline

import (
	"encoding/json"

	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/track"
)

// Attempt is a cascade attempt with its failure reason spelled out.
type Attempt struct {
	cascade.Attempt
	Reason string `json:"reason,omitempty"`
}

// Resolution is the result for one surah.
type Resolution struct {
	Surah int         `json:"surah"`
	Track track.Track `json:"track"`
	// Locator is the winning mirror, empty when none worked or probing was skipped.
	Locator    string            `json:"locator,omitempty"`
	Candidates []track.Candidate `json:"candidates"`
	Attempts   []Attempt         `json:"attempts,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type Output struct {
	Provider string        `json:"provider"`
	Result   []*Resolution `json:"result"`
}

func asJson(providerName string, resolutions []*Resolution) ([]byte, error) {
	if resolutions == nil {
		resolutions = []*Resolution{}
	}

	return json.Marshal(&Output{
		Provider: providerName,
		Result:   resolutions,
	})
}
