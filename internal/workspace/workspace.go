package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/mpataki/tada/internal/models"
)

// Workspace is the directory reports are written to.
type Workspace struct {
	Path string
}

// Paths are the output files of one exercise.
type Paths struct {
	Docx     string
	PDF      string
	Manifest string
}

// Manifest records what went into a report so it can be inspected later.
type Manifest struct {
	ExerciseID string                      `json:"exercise_id"`
	Title      string                      `json:"title"`
	SourcePath string                      `json:"source_path"`
	Student    string                      `json:"student"`
	RegNo      string                      `json:"regno"`
	SkipDB     bool                        `json:"skip_db"`
	Tasks      []models.Task               `json:"tasks"`
	Statements []models.GeneratedStatement `json:"statements"`
	Results    []models.ExecutionResult    `json:"results"`
}

func Create(path string) (*Workspace, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Workspace{Path: path}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// PathsFor names the outputs ex<id>_<regno>.{docx,pdf,json}; the
// registration number part is left out when empty.
func (w *Workspace) PathsFor(exerciseID, regNo string) Paths {
	base := "ex" + unsafeName.ReplaceAllString(exerciseID, "")
	if reg := unsafeName.ReplaceAllString(regNo, ""); reg != "" {
		base += "_" + reg
	}

	return Paths{
		Docx:     filepath.Join(w.Path, base+".docx"),
		PDF:      filepath.Join(w.Path, base+".pdf"),
		Manifest: filepath.Join(w.Path, base+".json"),
	}
}

// WriteReport replaces both report files. Each file is written beside its
// target and renamed into place so a failed write leaves no partial file.
func (w *Workspace) WriteReport(p Paths, docx, pdf []byte) error {
	if err := writeFile(p.Docx, docx); err != nil {
		return err
	}
	if err := writeFile(p.PDF, pdf); err != nil {
		os.Remove(p.Docx)
		return err
	}
	return nil
}

func (w *Workspace) WriteManifest(p Paths, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return writeFile(p.Manifest, data)
}

func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	return &m, nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
