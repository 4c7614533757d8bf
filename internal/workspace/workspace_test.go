package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mpataki/tada/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFor(t *testing.T) {
	w := &Workspace{Path: "/out"}

	p := w.PathsFor("4", "24BCE5561")
	assert.Equal(t, "/out/ex4_24BCE5561.docx", p.Docx)
	assert.Equal(t, "/out/ex4_24BCE5561.pdf", p.PDF)
	assert.Equal(t, "/out/ex4_24BCE5561.json", p.Manifest)

	p = w.PathsFor("4", "")
	assert.Equal(t, "/out/ex4.docx", p.Docx)

	p = w.PathsFor("4", "../24 BCE")
	assert.Equal(t, "/out/ex4_24BCE.docx", p.Docx)
}

func TestWriteReportAndManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w, err := Create(dir)
	require.NoError(t, err)

	p := w.PathsFor("2", "24BCE5561")
	require.NoError(t, w.WriteReport(p, []byte("docx"), []byte("pdf")))

	data, err := os.ReadFile(p.Docx)
	require.NoError(t, err)
	assert.Equal(t, "docx", string(data))
	_, err = os.Stat(p.Docx + ".tmp")
	assert.True(t, os.IsNotExist(err))

	m := &Manifest{
		ExerciseID: "2",
		RegNo:      "24BCE5561",
		Statements: []models.GeneratedStatement{{TaskID: "A1", SQL: "select 1", Attempts: 1}},
		Results:    []models.ExecutionResult{{TaskID: "A1", Output: "(DB execution skipped)", Placeholder: true}},
	}
	require.NoError(t, w.WriteManifest(p, m))

	got, err := ReadManifest(p.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "select 1", got.Statements[0].SQL)
	assert.True(t, got.Results[0].Placeholder)
}
