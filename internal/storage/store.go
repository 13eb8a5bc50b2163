package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ldodsn/internal/ldo"
)

const (
	metadataFile  = "metadata.yaml"
	candidateFile = "candidate.yaml"
	sweepFile     = "sweep.csv"
)

var ErrNoCandidate = errors.New("storage: run has no feasible candidate")

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
	ID        string             `yaml:"id"`
	Source    string             `yaml:"source"`
	Timestamp time.Time          `yaml:"timestamp"`
	Found     bool               `yaml:"found"`
	Points    int                `yaml:"points"`
	Spec      ldo.Spec           `yaml:"spec"`
	Metrics   map[string]float64 `yaml:"metrics"`
}

func metrics(c ldo.Candidate) map[string]float64 {
	return map[string]float64{
		"vg":       c.Vg,
		"ibias":    c.Ibias,
		"err":      c.Err,
		"psrr":     c.PSRR,
		"psrr_fbw": c.PSRRBandwidth,
		"pm":       c.PM,
		"loadreg":  c.LoadReg,
	}
}

// Save archives one search: its spec, the best candidate and every sweep
// point. source names the spec file or preset the run came from.
func (s *Store) Save(source string, spec ldo.Spec, best ldo.Candidate, points []ldo.SweepPoint) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s", now.Format("20060102-150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "storage: create run dir")
	}

	meta := RunMetadata{
		ID:        runID,
		Source:    source,
		Timestamp: now,
		Found:     best.Found(),
		Points:    len(points),
		Spec:      spec,
		Metrics:   metrics(best),
	}
	if err := writeYAML(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if best.Found() {
		if err := writeYAML(filepath.Join(runDir, candidateFile), best); err != nil {
			return "", err
		}
	}
	if err := writeSweep(filepath.Join(runDir, sweepFile), points); err != nil {
		return "", err
	}
	return runID, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "storage: marshal %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "storage: write %s", path)
	}
	return nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "storage: parse %s", path)
	}
	return nil
}

func writeSweep(path string, points []ldo.SweepPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "storage: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"vg", "outcome", "ibias", "budget"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p.Vg, 'g', -1, 64),
			p.Outcome.String(),
			strconv.FormatFloat(p.Ibias, 'g', -1, 64),
			strconv.FormatFloat(p.Budget, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every archived run, newest first.
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
		var meta RunMetadata
		if err := readYAML(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readYAML(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		return nil, errors.Wrapf(err, "storage: load run %s", runID)
	}
	return &meta, nil
}

func (s *Store) LoadCandidate(runID string) (*ldo.Candidate, error) {
	path := filepath.Join(s.baseDir, runID, candidateFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoCandidate
	}
	var c ldo.Candidate
	if err := readYAML(path, &c); err != nil {
		return nil, errors.Wrapf(err, "storage: load candidate %s", runID)
	}
	return &c, nil
}

func (s *Store) LoadSweep(runID string) ([]ldo.SweepPoint, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, sweepFile))
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open sweep %s", runID)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "storage: read sweep %s", runID)
	}
	if len(records) < 2 {
		return []ldo.SweepPoint{}, nil
	}

	points := make([]ldo.SweepPoint, 0, len(records)-1)
	for _, rec := range records[1:] {
		var p ldo.SweepPoint
		if p.Vg, err = strconv.ParseFloat(rec[0], 64); err != nil {
			return nil, errors.Wrap(err, "storage: sweep vg")
		}
		if p.Outcome, err = ldo.ParseOutcome(rec[1]); err != nil {
			return nil, err
		}
		if p.Ibias, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, errors.Wrap(err, "storage: sweep ibias")
		}
		if p.Budget, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, errors.Wrap(err, "storage: sweep budget")
		}
		points = append(points, p)
	}
	return points, nil
}
