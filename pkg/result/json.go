package result

import (
	"encoding/json"
	"io"
)

// Report is the JSON document written by the selftest command.
type Report struct {
	Properties int       `json:"properties"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
}

// WriteJSON writes outcomes as an indented Report.
func WriteJSON(w io.Writer, outcomes []Outcome) error {
	rep := Report{Properties: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if !o.Passed() {
			rep.Failed++
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ReadJSON reads a Report written by WriteJSON and returns its outcomes.
func ReadJSON(r io.Reader) ([]Outcome, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, err
	}
	return rep.Outcomes, nil
}
