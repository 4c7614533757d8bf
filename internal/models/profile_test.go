package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTablePrefix(t *testing.T) {
	tests := []struct {
		regNo string
		want  string
	}{
		{"24BCE5561", "bce5561_"},
		{"23mis1002", "mis1002_"},
		{"STUDENT 7", "student7_"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		p := StudentProfile{RegNo: tt.regNo}
		assert.Equal(t, tt.want, p.TablePrefix(), "regno %q", tt.regNo)
	}
}

func TestExerciseTasksOfKind(t *testing.T) {
	ex := Exercise{Tasks: []Task{
		{ID: "setup-1", Kind: TaskKindSetup},
		{ID: "A1", Kind: TaskKindQuery},
		{ID: "setup-2", Kind: TaskKindSetup},
	}}

	assert.Len(t, ex.SetupTasks(), 2)
	assert.Len(t, ex.QueryTasks(), 1)
	assert.Equal(t, "A1", ex.QueryTasks()[0].ID)
}
