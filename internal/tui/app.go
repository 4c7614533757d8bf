package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mpataki/tada/internal/models"
)

// Ledger is the read side of the run history the browser needs.
type Ledger interface {
	ListRuns(limit int) ([]*models.Run, error)
	GetRun(id int64) (*models.Run, error)
	GetOutcomesForRun(runID int64) ([]*models.ExerciseOutcome, error)
	DeleteRun(runID int64) error
}

type View int

const (
	ViewRunList View = iota
	ViewRunDetail
)

const historyLimit = 20

// App browses past runs and their per-exercise outcomes.
type App struct {
	ledger Ledger

	view           View
	runs           []*models.Run
	selectedIdx    int
	selectedRun    *models.Run
	outcomes       []*models.ExerciseOutcome
	selectedOutIdx int

	width  int
	height int
	err    error
}

func NewApp(ledger Ledger) *App {
	return &App{
		ledger: ledger,
		view:   ViewRunList,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadRuns
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case runsLoadedMsg:
		a.runs = msg.runs
		a.err = msg.err
		if a.selectedIdx >= len(a.runs) {
			a.selectedIdx = max(len(a.runs)-1, 0)
		}
		return a, nil

	case runDetailMsg:
		a.selectedRun = msg.run
		a.outcomes = msg.outcomes
		a.err = msg.err
		if a.err == nil {
			a.view = ViewRunDetail
			a.selectedOutIdx = 0
		}
		return a, nil

	case runDeletedMsg:
		a.err = msg.err
		return a, a.loadRuns
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewRunList:
		return a.handleRunListKey(msg)
	case ViewRunDetail:
		return a.handleRunDetailKey(msg)
	}
	return a, nil
}

func (a *App) handleRunListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "down", "j":
		if a.selectedIdx < len(a.runs)-1 {
			a.selectedIdx++
		}

	case "enter":
		if run := a.currentRun(); run != nil {
			return a, a.loadRunDetail(run.ID)
		}

	case "r":
		return a, a.loadRuns

	case "d":
		if run := a.currentRun(); run != nil {
			return a, a.deleteRun(run.ID)
		}
	}

	return a, nil
}

func (a *App) handleRunDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		a.view = ViewRunList
		a.selectedRun = nil
		a.outcomes = nil
		a.selectedOutIdx = 0

	case "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.selectedOutIdx > 0 {
			a.selectedOutIdx--
		}

	case "down", "j":
		if a.selectedOutIdx < len(a.outcomes)-1 {
			a.selectedOutIdx++
		}
	}

	return a, nil
}

func (a *App) currentRun() *models.Run {
	if a.selectedIdx < 0 || a.selectedIdx >= len(a.runs) {
		return nil
	}
	return a.runs[a.selectedIdx]
}

func (a *App) View() string {
	switch a.view {
	case ViewRunList:
		return a.viewRunList()
	case ViewRunDetail:
		return a.viewRunDetail()
	}
	return ""
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statusRunning  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusComplete = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusPending  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func (a *App) viewRunList() string {
	s := titleStyle.Render("Tada") + "\n\n"

	if a.err != nil {
		s += fmt.Sprintf("Error: %v\n", a.err)
	}

	if len(a.runs) == 0 {
		s += "No runs yet. Try 'tada run --exercise all'.\n"
	} else {
		s += "Recent Runs\n"
		s += "───────────\n"

		for i, run := range a.runs {
			line := formatRunLine(run)
			switch {
			case i == a.selectedIdx:
				line = selectedStyle.Render("▶ " + line)
			case run.Status == models.RunStatusRunning:
				line = "  " + line
			default:
				line = "  " + dimStyle.Render(line)
			}
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("[enter] view  [d] delete  [r] refresh  [q] quit")

	return s
}

func formatRunLine(run *models.Run) string {
	status := formatRunStatus(run.Status)
	age := formatAge(run.CreatedAt)
	db := run.DBType
	if run.SkipDB {
		db = "skip-db"
	}
	return fmt.Sprintf("#%-3d %-8s %-8s %s  %s", run.ID, Truncate(run.Selector, 8), db, status, age)
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd", days)
	}
}

func formatRunStatus(status models.RunStatus) string {
	switch status {
	case models.RunStatusRunning:
		return statusRunning.Render("● running")
	case models.RunStatusComplete:
		return statusComplete.Render("✓ complete")
	case models.RunStatusFailed:
		return statusFailed.Render("✗ failed")
	case models.RunStatusPending:
		return statusPending.Render("○ pending")
	default:
		return string(status)
	}
}

func formatOutcomeStatus(status models.OutcomeStatus) string {
	switch status {
	case models.OutcomeStatusComplete:
		return statusComplete.Render("✓")
	case models.OutcomeStatusRunning:
		return statusRunning.Render("●")
	case models.OutcomeStatusFailed:
		return statusFailed.Render("✗")
	default:
		return statusPending.Render("○")
	}
}

func (a *App) viewRunDetail() string {
	if a.selectedRun == nil {
		return "No run selected"
	}

	run := a.selectedRun

	header := fmt.Sprintf("Run #%d: exercise %s", run.ID, run.Selector)
	s := titleStyle.Render(header) + "  " + formatRunStatus(run.Status) + "\n\n"

	s += labelStyle.Render("Input:  ") + dimStyle.Render(run.InputDir) + "\n"
	s += labelStyle.Render("Output: ") + dimStyle.Render(run.OutputDir) + "\n\n"

	s += "Exercises\n"
	s += "─────────\n"

	if len(a.outcomes) == 0 {
		s += "(no exercises recorded)\n"
	} else {
		for i, o := range a.outcomes {
			line := fmt.Sprintf("%d. ex %-4s %s", o.SequenceNum, o.ExerciseID, formatOutcomeStatus(o.Status))
			if o.StartedAt != nil && o.CompletedAt != nil {
				line += "  " + dimStyle.Render(fmt.Sprintf("%6s", formatDuration(o.CompletedAt.Sub(*o.StartedAt))))
			}
			if o.Failed() {
				line += "  " + statusFailed.Render(fmt.Sprintf("%s: %s", o.Stage, Truncate(o.Error, 50)))
			} else if o.DocxPath != "" {
				line += "  " + dimStyle.Render(o.DocxPath)
			}

			if i == a.selectedOutIdx {
				line = selectedStyle.Render("▶ " + line)
			} else {
				line = "  " + line
			}
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("[↑/↓] select  [esc] back  [q] quit")

	return s
}

// Messages

type runsLoadedMsg struct {
	runs []*models.Run
	err  error
}

type runDetailMsg struct {
	run      *models.Run
	outcomes []*models.ExerciseOutcome
	err      error
}

type runDeletedMsg struct {
	runID int64
	err   error
}

// Commands

func (a *App) loadRuns() tea.Msg {
	runs, err := a.ledger.ListRuns(historyLimit)
	return runsLoadedMsg{runs: runs, err: err}
}

func (a *App) loadRunDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		run, err := a.ledger.GetRun(id)
		if err != nil {
			return runDetailMsg{err: err}
		}

		outcomes, err := a.ledger.GetOutcomesForRun(id)
		return runDetailMsg{run: run, outcomes: outcomes, err: err}
	}
}

func (a *App) deleteRun(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.ledger.DeleteRun(id); err != nil {
			return runDeletedMsg{err: err}
		}
		return runDeletedMsg{runID: id}
	}
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
