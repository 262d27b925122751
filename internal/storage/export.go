package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/softbody/internal/dynamo"
)

type ExportData struct {
	Scenario string               `json:"scenario"`
	Method   string               `json:"method"`
	Dt       float64              `json:"dt"`
	Duration float64              `json:"duration"`
	Steps    int                  `json:"steps"`
	Times    []float64            `json:"times"`
	Frames   [][]float64          `json:"frames"`
	Series   map[string][]float64 `json:"series"`
	Metrics  map[string]float64   `json:"metrics"`
}

// ExportJSON writes a run as one JSON document. Each frame is flattened to
// x0, y0, z0, x1, ...
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		Scenario: meta.Scenario,
		Method:   meta.Method,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    result.StepsTaken,
		Times:    result.Times,
		Frames:   make([][]float64, len(result.Frames)),
		Series:   result.Series,
		Metrics:  result.Metrics,
	}

	for i, f := range result.Frames {
		data.Frames[i] = f.Flatten()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
