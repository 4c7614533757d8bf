package models

import (
	"regexp"
	"strings"
)

// StudentProfile identifies the student on every report.
type StudentProfile struct {
	Name    string `yaml:"name"`
	RegNo   string `yaml:"regno"`
	Slot    string `yaml:"slot,omitempty"`
	ClassNo string `yaml:"class_no,omitempty"`
	Faculty string `yaml:"faculty,omitempty"`
}

var regNoPattern = regexp.MustCompile(`(?i)(\d{2})([A-Z]+\d+)`)

// TablePrefix derives the per-student table prefix from the registration
// number, e.g. 24BCE5561 -> bce5561_. An empty registration number yields "".
func (p *StudentProfile) TablePrefix() string {
	regNo := strings.TrimSpace(p.RegNo)
	if regNo == "" {
		return ""
	}
	if m := regNoPattern.FindStringSubmatch(regNo); m != nil {
		return strings.ToLower(m[2]) + "_"
	}
	return strings.ToLower(strings.ReplaceAll(regNo, " ", "")) + "_"
}

func (p *StudentProfile) Complete() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.RegNo) != ""
}
