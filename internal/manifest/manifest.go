// Package manifest records what a run produced in manifest.json.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/churnviz-cli/internal/utils"
	"github.com/google/uuid"
)

// FileName is the manifest artifact name.
const FileName = "manifest.json"

// Manifest describes one run persisted next to its outputs.
type Manifest struct {
	RunID      string     `json:"run_id"`
	Input      string     `json:"input"`
	OutputDir  string     `json:"output_dir"`
	Stage      string     `json:"stage"`
	Rows       int        `json:"rows"`
	Anomalies  int        `json:"anomalies"`
	Expected   int        `json:"expected_charts"`
	Produced   int        `json:"produced_charts"`
	Artifacts  []Artifact `json:"artifacts"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// New starts a manifest with a fresh run id.
func New(input, outputDir string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Input:     input,
		OutputDir: outputDir,
		StartedAt: time.Now(),
	}
}

// Load reads manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Record appends or replaces the artifact with the same name.
func (m *Manifest) Record(a Artifact) {
	for i := range m.Artifacts {
		if m.Artifacts[i].Name == a.Name {
			m.Artifacts[i] = a
			return
		}
	}
	m.Artifacts = append(m.Artifacts, a)
}

// Failed returns artifacts that were not written.
func (m *Manifest) Failed() []Artifact {
	var out []Artifact
	for _, a := range m.Artifacts {
		if a.Status == StatusFailed {
			out = append(out, a)
		}
	}
	return out
}

// Save stamps FinishedAt and writes manifest.json atomically into OutputDir.
func (m *Manifest) Save() (string, error) {
	if m.OutputDir == "" {
		return "", errors.New("manifest output directory not set")
	}
	m.FinishedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	return utils.WriteFileIn(m.OutputDir, FileName, data)
}
