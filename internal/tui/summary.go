package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mpataki/tada/internal/models"
	"github.com/mpataki/tada/internal/storage"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// RenderSummary prints one row per exercise of a finished run followed by
// the success and failure counts.
func RenderSummary(run *models.Run, outcomes []*models.ExerciseOutcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(fmt.Sprintf("Run #%d", run.ID)), formatRunStatus(run.Status))

	t := newTable("Exercise", "Status", "Statements", "Result")
	succeeded, failed := 0, 0
	for _, o := range outcomes {
		result := o.DocxPath
		if o.Failed() {
			failed++
			result = fmt.Sprintf("%s: %s", o.Stage, Truncate(o.Error, 60))
		} else if o.Status == models.OutcomeStatusComplete {
			succeeded++
		}
		t.Row(o.ExerciseID, string(o.Status), strconv.Itoa(o.Statements), result)
	}
	b.WriteString(t.String())
	b.WriteString("\n")

	counts := fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
	if failed > 0 {
		b.WriteString(statusFailed.Render(counts))
	} else {
		b.WriteString(statusComplete.Render(counts))
	}
	b.WriteString("\n")

	return b.String()
}

func RenderHistory(runs []*models.Run) string {
	if len(runs) == 0 {
		return "No runs found.\n"
	}

	t := newTable("Run", "When", "Exercise", "Database", "Status")
	for _, run := range runs {
		db := run.DBType
		if run.SkipDB {
			db = "skipped"
		}
		t.Row("#"+strconv.FormatInt(run.ID, 10), storage.FormatTimeAgo(run.CreatedAt), run.Selector, db, string(run.Status))
	}
	return t.String() + "\n"
}
