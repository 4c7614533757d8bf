package report

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mpataki/tada/internal/execute"
	"github.com/mpataki/tada/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() Input {
	ex := &models.Exercise{
		ID:    "4",
		Title: "SQL Operators",
		Tasks: []models.Task{
			{ID: "setup-1", Kind: models.TaskKindSetup, Label: "employee", Position: 0},
			{ID: "A1", Kind: models.TaskKindQuery, Label: "A1.", Text: "Display salary plus a bonus of 5000.", Position: 1},
			{ID: "A2", Kind: models.TaskKindQuery, Label: "A2.", Text: "Show names & ages < 30.", Position: 2},
		},
	}
	return Input{
		Exercise: ex,
		Statements: []models.GeneratedStatement{
			{TaskID: "A2", SQL: "select emp_name, age\nfrom bce5561_employee\nwhere age < 30"},
			{TaskID: "setup-1", SQL: "create table bce5561_employee (emp_id number);"},
			{TaskID: "A1", SQL: "select salary + 5000 from bce5561_employee"},
		},
		Results: []models.ExecutionResult{
			{TaskID: "A1", Output: "SALARY+5000\n-----------\n50000\n\n1 row selected."},
			{TaskID: "setup-1", Output: "Table created."},
			{TaskID: "A2", Output: "no rows selected"},
		},
		Profile: models.StudentProfile{Name: "Ravi Kumar", RegNo: "24BCE5561", Slot: "L19+20", ClassNo: "2025260503021"},
	}
}

func documentText(t *testing.T, docx []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	require.NoError(t, err)

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatal("word/document.xml missing")
	return ""
}

func TestBuildIsDeterministic(t *testing.T) {
	first, err := Build(sampleInput())
	require.NoError(t, err)
	second, err := Build(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, first.DOCX, second.DOCX)
	assert.Equal(t, first.PDF, second.PDF)
	assert.True(t, bytes.HasPrefix(first.PDF, []byte("%PDF-")))
}

func TestBuildKeepsDocumentOrder(t *testing.T) {
	rep, err := Build(sampleInput())
	require.NoError(t, err)
	body := documentText(t, rep.DOCX)

	markers := []string{
		"Database Systems Lab",
		"Experiment Name/No: SQL Operators (Ex. 4)",
		"Registration Number: 24BCE5561",
		"bce5561_employee table",
		"Table created.",
		"Practice Queries",
		"A1. Display salary plus a bonus of 5000.",
		"A2. Show names &amp; ages &lt; 30.",
		"no rows selected",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(body, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
	assert.Equal(t, 1, strings.Count(body, "Practice Queries"))
}

func TestBuildSkippedResults(t *testing.T) {
	in := sampleInput()
	in.Exercise.Tasks = in.Exercise.Tasks[:2]
	in.Results = []models.ExecutionResult{
		{TaskID: "setup-1", Output: execute.PlaceholderText, Placeholder: true},
		{TaskID: "A1", Output: execute.PlaceholderText, Placeholder: true},
	}

	rep, err := Build(in)
	require.NoError(t, err)
	body := documentText(t, rep.DOCX)
	assert.Equal(t, 2, strings.Count(body, execute.PlaceholderText))

	doc, err := newDocument(in)
	require.NoError(t, err)
	require.Len(t, doc.sections, 2)
	for _, s := range doc.sections {
		assert.Contains(t, s.terminal, execute.PlaceholderText)
	}
}

func TestBuildFont(t *testing.T) {
	in := sampleInput()
	doc, err := newDocument(in)
	require.NoError(t, err)
	assert.Equal(t, DefaultFont, doc.font)

	in.Font = "Times New Roman"
	rep, err := Build(in)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(rep.DOCX), int64(len(rep.DOCX)))
	require.NoError(t, err)
	var styles string
	for _, f := range zr.File {
		if f.Name == "word/styles.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			data, _ := io.ReadAll(rc)
			rc.Close()
			styles = string(data)
		}
	}
	assert.Contains(t, styles, `w:ascii="Times New Roman"`)
	assert.True(t, bytes.Contains(rep.PDF, []byte("/Times-Roman")), "PDF body follows the font")
}

func TestCoreFont(t *testing.T) {
	for font, want := range map[string]string{
		"Calibri":              "Arial",
		"Times New Roman":      "Times",
		"Georgia":              "Times",
		"Microsoft Sans Serif": "Arial",
		"Consolas":             "Courier",
		"":                     "Arial",
	} {
		assert.Equal(t, want, coreFont(font), font)
	}
}

func TestBuildMissingResult(t *testing.T) {
	in := sampleInput()
	in.Results = in.Results[:2]

	_, err := Build(in)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.ErrorContains(t, err, "task A2 has no result")
}

func TestTerminal(t *testing.T) {
	got := terminal("select a\nfrom t", "no rows selected")
	assert.Equal(t, "SQL> select a\n  2  from t;\n\nno rows selected\n\nSQL> ", got)

	got = terminal("create table t (id int);", "Table created.")
	assert.Equal(t, "SQL> create table t (id int);\n\nTable created.\n\nSQL> ", got)
}
