// Package report renders an exercise's statements and results as a Word
// document and a PDF rendition.
package report

import (
	"fmt"
	"strings"

	"github.com/mpataki/tada/internal/models"
)

const DefaultFont = "Calibri"

// Input is everything one report is built from.
type Input struct {
	Exercise   *models.Exercise
	Statements []models.GeneratedStatement
	Results    []models.ExecutionResult
	Profile    models.StudentProfile
	Font       string
}

type Report struct {
	DOCX []byte
	PDF  []byte
}

// RenderError aborts one exercise's report.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Build renders both formats. Equal inputs give byte-identical output.
func Build(in Input) (*Report, error) {
	doc, err := newDocument(in)
	if err != nil {
		return nil, &RenderError{Format: "report", Err: err}
	}

	docx, err := renderDOCX(doc)
	if err != nil {
		return nil, &RenderError{Format: "docx", Err: err}
	}
	pdf, err := renderPDF(doc)
	if err != nil {
		return nil, &RenderError{Format: "pdf", Err: err}
	}

	return &Report{DOCX: docx, PDF: pdf}, nil
}

// document is the format independent layout shared by both renderers.
type document struct {
	font     string
	title    string
	meta     []string
	sections []section
}

type section struct {
	// heading precedes the section: "<table> table", or "Practice Queries"
	// before the first query.
	heading     string
	headingRank int
	text        string
	sql         string
	terminal    string
}

func newDocument(in Input) (*document, error) {
	if in.Exercise == nil {
		return nil, fmt.Errorf("no exercise")
	}

	font := strings.TrimSpace(in.Font)
	if font == "" {
		font = DefaultFont
	}

	statements := make(map[string]models.GeneratedStatement, len(in.Statements))
	for _, s := range in.Statements {
		statements[s.TaskID] = s
	}
	results := make(map[string]models.ExecutionResult, len(in.Results))
	for _, r := range in.Results {
		results[r.TaskID] = r
	}

	p := in.Profile
	doc := &document{
		font:  font,
		title: "Database Systems Lab",
		meta: []string{
			fmt.Sprintf("Experiment Name/No: %s (Ex. %s)", in.Exercise.Title, in.Exercise.ID),
			"Name: " + orDefault(p.Name, "Student"),
			"Registration Number: " + orDefault(p.RegNo, "XXXXXXXXXX"),
			"Lab Slot: " + orDefault(p.Slot, "L00+00"),
			"Class Number: " + orDefault(p.ClassNo, "0000000000000"),
		},
	}

	prefix := p.TablePrefix()
	seenQuery := false
	for _, task := range in.Exercise.Tasks {
		stmt, ok := statements[task.ID]
		if !ok {
			return nil, fmt.Errorf("task %s has no statement", task.ID)
		}
		res, ok := results[task.ID]
		if !ok {
			return nil, fmt.Errorf("task %s has no result", task.ID)
		}

		s := section{
			sql:      stmt.SQL,
			terminal: terminal(stmt.SQL, res.Output),
		}
		switch task.Kind {
		case models.TaskKindSetup:
			name := prefix + task.Label
			s.heading, s.headingRank = name+" table", 2
			s.text = fmt.Sprintf("Create %s table and insert data", name)
		default:
			if !seenQuery {
				s.heading, s.headingRank = "Practice Queries", 1
				seenQuery = true
			}
			s.text = strings.TrimSpace(task.Label + " " + task.Text)
		}
		doc.sections = append(doc.sections, s)
	}

	return doc, nil
}

// terminal renders the SQL*Plus screen for one statement: the numbered
// command echo followed by what the database printed.
func terminal(sql, output string) string {
	var b strings.Builder
	lines := strings.Split(strings.TrimSpace(sql), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if i == 0 {
			b.WriteString("SQL> " + line)
		} else {
			fmt.Fprintf(&b, "\n%3d  %s", i+1, line)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(sql), ";") {
		b.WriteString(";")
	}
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(output, "\n"))
	b.WriteString("\n\nSQL> ")
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
