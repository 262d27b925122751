package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Scenario         string             `json:"scenario"`
	Method           string             `json:"method"`
	Timestamp        time.Time          `json:"timestamp"`
	Dt               float64            `json:"dt"`
	Duration         float64            `json:"duration"`
	Stiffness        float64            `json:"stiffness"`
	PoissonRatio     float64            `json:"poisson_ratio"`
	NormalizeStretch bool               `json:"normalize_stretch"`
	NormalizeShear   bool               `json:"normalize_shear"`
	NumParticles     int                `json:"num_particles"`
	NumTets          int                `json:"num_tets"`
	StepsTaken       int                `json:"steps_taken"`
	Metrics          map[string]float64 `json:"metrics"`
	Edges            []mesh.Edge        `json:"edges,omitempty"`
}

// Save writes a run under a new ID and returns it. meta.ID, Timestamp,
// StepsTaken and Metrics are filled in from the result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", meta.Scenario, meta.Method, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.StepsTaken = result.StepsTaken
	meta.Metrics = result.Metrics

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, framesFile), func(w io.Writer) error {
		return WriteFramesCSV(w, result.Frames)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, seriesFile), func(w io.Writer) error {
		return WriteSeriesCSV(w, result.Times, result.Series)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteFramesCSV writes one row per frame: time, x0, y0, z0, x1, ...
func WriteFramesCSV(w io.Writer, frames []dynamo.Frame) error {
	cw := csv.NewWriter(w)

	if len(frames) > 0 {
		header := []string{"time"}
		for i := range frames[0].Positions {
			header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i), fmt.Sprintf("z%d", i))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for _, f := range frames {
		row := []string{formatFloat(f.Time)}
		for _, v := range f.Flatten() {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes time plus one column per series, in name order.
func WriteSeriesCSV(w io.Writer, times []float64, series map[string][]float64) error {
	names := SeriesNames(series)
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}
	for i, t := range times {
		row := []string{formatFloat(t)}
		for _, name := range names {
			val := ""
			if i < len(series[name]) {
				val = strconv.FormatFloat(series[name][i], 'g', -1, 64)
			}
			row = append(row, val)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func SeriesNames(series map[string][]float64) []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		meta.Edges = nil
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Frame{}, nil
	}

	frames := make([]dynamo.Frame, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) == 0 || (len(record)-1)%3 != 0 {
			return nil, fmt.Errorf("%s row %d: expected time plus xyz triples, got %d fields", framesFile, i+1, len(record))
		}
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", framesFile, i+1, err)
			}
			vals[j] = v
		}

		f := dynamo.Frame{Time: vals[0], Positions: make([]mgl64.Vec3, (len(vals)-1)/3)}
		for p := range f.Positions {
			f.Positions[p] = mgl64.Vec3{vals[1+3*p], vals[2+3*p], vals[3+3*p]}
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// LoadSeries returns the sample times and the metric series of a run.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, nil, err
	}

	series := make(map[string][]float64)
	if len(records) == 0 {
		return []float64{}, series, nil
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		for j := 1; j < len(record) && j < len(header); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			series[header[j]] = append(series[header[j]], val)
		}
	}

	return times, series, nil
}
