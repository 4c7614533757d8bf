package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0644))
	}
}

func TestDiscoverSortsByNumber(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"Ex 10. Joins.pdf",
		"Ex 4. SQL Operators.pdf",
		"ex2-Constraints.pdf",
		"24BCE5561_ex4.pdf",
		"notes.txt",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ex9.pdf"), 0755))

	refs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, "2", refs[0].ID)
	assert.Equal(t, "Constraints", refs[0].Title)
	assert.Equal(t, "4", refs[1].ID)
	assert.Equal(t, "SQL Operators", refs[1].Title)
	assert.Equal(t, "10", refs[2].ID)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "failed to read input directory")
}

func TestSelect(t *testing.T) {
	refs := []Ref{
		{ID: "1", Path: "/in/Ex 1. Basics.pdf"},
		{ID: "4", Path: "/in/Ex4. SQL Operators.pdf"},
		{ID: "14", Path: "/in/Ex 14. Triggers.pdf"},
	}

	all, err := Select(refs, "ALL")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := Select(refs, "4")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "4", one[0].ID)

	one, err = Select(refs, "1")
	require.NoError(t, err)
	require.Len(t, one, 1, "1 must not match 14")

	_, err = Select(refs, "7")
	assert.ErrorContains(t, err, "exercise 7 not found")
	assert.ErrorContains(t, err, "Ex 14. Triggers.pdf")

	_, err = Select(refs, " ")
	assert.Error(t, err)
}

func TestFromText(t *testing.T) {
	id, title, ok := FromText("SCHOOL\nEXERCISE 6\n Title: Aggregate Functions\nbody")
	require.True(t, ok)
	assert.Equal(t, "6", id)
	assert.Equal(t, "Aggregate Functions", title)

	_, _, ok = FromText("nothing here")
	assert.False(t, ok)
}

func TestFromFileNameFallback(t *testing.T) {
	id, title := FromFileName("exercise-sheet.pdf")
	assert.Empty(t, id)
	assert.Equal(t, "exercise-sheet", title)
}
