package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpataki/tada/internal/config"
	"github.com/mpataki/tada/internal/models"
	"gopkg.in/yaml.v3"
)

// Load reads the saved student profile. found is false when no profile has
// been saved yet; the returned profile then only carries the defaults.
func Load(path string, defaults config.ProfileDefaults) (p *models.StudentProfile, found bool, err error) {
	p = &models.StudentProfile{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(p, defaults)
			return p, false, nil
		}
		return nil, false, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, false, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	applyDefaults(p, defaults)

	return p, true, nil
}

// Save writes the profile, creating the parent directory if needed.
func Save(path string, p *models.StudentProfile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

func applyDefaults(p *models.StudentProfile, d config.ProfileDefaults) {
	if p.Faculty == "" {
		p.Faculty = d.Faculty
	}
	if p.Slot == "" {
		p.Slot = d.Slot
	}
	if p.ClassNo == "" {
		p.ClassNo = d.ClassNo
	}
}
