package grid

import (
	"encoding/json"
)

// Trace records how the defaults cascade resolved one parameter.
type Trace struct {
	Field  string       `json:"field"`
	Value  any          `json:"value,omitempty"`
	Winner *Scope       `json:"winner,omitempty"`
	Layers []Provenance `json:"layers"`
}

// Provenance is the contribution of one layer to a traced field.
type Provenance struct {
	Scope  Scope  `json:"scope"`
	Source string `json:"source,omitempty"`
	Value  any    `json:"value,omitempty"`
	Found  bool   `json:"found"`
}

// ToJSON serialises the trace for logging or the CLI.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}
