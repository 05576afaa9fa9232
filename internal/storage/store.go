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

	"github.com/san-kum/ripple/internal/config"
)

// Store keeps bench runs, one directory per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one recorded bench run.
type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Backend   string             `json:"backend"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Frames    int                `json:"frames"`
	Elapsed   time.Duration      `json:"elapsed"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Series holds metric values sampled at the listed frames.
type Series struct {
	Frames []int
	Values map[string][]float64
}

// Names returns the metric names in a stable order.
func (s Series) Names() []string {
	names := make([]string, 0, len(s.Values))
	for name := range s.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes metadata.json and series.csv into a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, series Series) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.ID = fmt.Sprintf("bench_%d", meta.Timestamp.UnixMilli())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	names := series.Names()
	if err := w.Write(append([]string{"frame"}, names...)); err != nil {
		return "", err
	}
	for i, frame := range series.Frames {
		row := []string{strconv.Itoa(frame)}
		for _, name := range names {
			v := 0.0
			if i < len(series.Values[name]) {
				v = series.Values[name][i]
			}
			row = append(row, strconv.FormatFloat(v, 'g', 8, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, oldest first.
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
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return Series{}, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return Series{}, err
	}

	series := Series{Values: make(map[string][]float64)}
	if len(records) < 1 {
		return series, nil
	}
	header := records[0]
	for _, record := range records[1:] {
		frame, err := strconv.Atoi(record[0])
		if err != nil {
			return Series{}, fmt.Errorf("run %s: bad frame %q", runID, record[0])
		}
		series.Frames = append(series.Frames, frame)
		for j := 1; j < len(record) && j < len(header); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return Series{}, fmt.Errorf("run %s: bad %s value %q", runID, header[j], record[j])
			}
			series.Values[header[j]] = append(series.Values[header[j]], val)
		}
	}

	return series, nil
}

// ExportData is a run and its series as one JSON document.
type ExportData struct {
	RunMetadata
	Frames []int                `json:"frames"`
	Series map[string][]float64 `json:"series"`
}

// ExportJSON writes a stored run as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{RunMetadata: *meta, Frames: series.Frames, Series: series.Values})
}
