package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mpataki/tada/internal/catalog"
	"github.com/mpataki/tada/internal/models"
	"go.uber.org/zap"
)

type Extractor struct {
	source TextSource
	logger *zap.Logger
}

func New(source TextSource, logger *zap.Logger) *Extractor {
	return &Extractor{
		source: source,
		logger: logger,
	}
}

// Extract reads the document at path and splits its practice section into
// setup and query tasks in document order.
func (e *Extractor) Extract(ctx context.Context, path string) (*models.Exercise, error) {
	text, err := e.source.Text(ctx, path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "failed to read document", Err: err}
	}

	ex, err := Parse(path, text)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extracted exercise",
		zap.String("path", path),
		zap.String("exercise", ex.ID),
		zap.Int("setup_tasks", len(ex.SetupTasks())),
		zap.Int("query_tasks", len(ex.QueryTasks())))

	return ex, nil
}

var (
	practiceMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:\d+\.\s*)?PRACTICE\s+DATABASE`),
		regexp.MustCompile(`(?i)(?:\d+\.\s*)?PRACTICE\s+QUESTIONS`),
		regexp.MustCompile(`(?i)EXERCISE\s*:`),
	}
	pageHeader = regexp.MustCompile(`SCHOOL OF COMPUTER SCIENCE AND ENGINEERING\s*\n.*?BCSE302P.*?\n.*?Semester.*?Faculty.*?\n`)

	// a table header needs a number or a separator after an upper-case
	// TABLE, so wrapped question text starting with "table" stays put
	tableLine    = regexp.MustCompile(`^TABLE(?:\s*(\d+)\s*[:.\-]?|\s*[:.\-])\s*(.*)$`)
	sectionLine  = regexp.MustCompile(`^([A-Z])[.)]\s+(.+)$`)
	questionLine = regexp.MustCompile(`^(?:Q\s*)?(\d+)[.)]\s+(.+)$`)
)

// Parse builds an Exercise from already extracted document text.
func Parse(path, text string) (*models.Exercise, error) {
	ex := &models.Exercise{SourcePath: path}
	ex.ID, ex.Title = metadata(path, text)
	ex.PracticeText = PracticeSection(text)

	ex.Tasks = splitTasks(ex.PracticeText)
	if len(ex.Tasks) == 0 {
		return nil, &ParseError{Path: path, Reason: "no tables or numbered questions found"}
	}

	return ex, nil
}

// PracticeSection returns the text from the earliest practice marker on, with
// repeated page headers removed. Without a marker the whole text is used.
func PracticeSection(text string) string {
	start := len(text)
	for _, marker := range practiceMarkers {
		if loc := marker.FindStringIndex(text); loc != nil && loc[0] < start {
			start = loc[0]
		}
	}
	if start == len(text) {
		start = 0
	}

	section := pageHeader.ReplaceAllString(text[start:], "")
	return strings.TrimSpace(section)
}

func metadata(path, text string) (id, title string) {
	id, title = catalog.FromFileName(filepath.Base(path))
	if id != "" {
		return id, title
	}
	if tid, ttitle, ok := catalog.FromText(text); ok {
		return tid, ttitle
	}
	return "0", title
}

type taskBuilder struct {
	tasks   []models.Task
	seenIDs map[string]int
	section string

	table      *models.TableData
	tableLines []string
	tableNum   int

	question      *models.Task
	questionParts []string
}

func splitTasks(section string) []models.Task {
	b := &taskBuilder{seenIDs: make(map[string]int)}

	for _, raw := range strings.Split(section, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			b.flushTable()
			b.flushQuestion()

		case isMarker(line):
			b.flushTable()
			b.flushQuestion()

		case tableLine.MatchString(line):
			b.flushTable()
			b.flushQuestion()
			m := tableLine.FindStringSubmatch(line)
			b.startTable(m[2])
			b.tableLines = append(b.tableLines, line)

		case isSectionHeader(line):
			b.flushTable()
			b.flushQuestion()
			b.section = sectionLine.FindStringSubmatch(line)[1]

		case questionLine.MatchString(line):
			b.flushTable()
			b.flushQuestion()
			m := questionLine.FindStringSubmatch(line)
			b.startQuestion(m[1], m[2])

		case b.table != nil:
			b.addTableLine(line)

		case b.question != nil:
			b.questionParts = append(b.questionParts, line)
		}
	}

	b.flushTable()
	b.flushQuestion()

	for i := range b.tasks {
		b.tasks[i].Position = i
	}
	return b.tasks
}

func isMarker(line string) bool {
	for _, marker := range practiceMarkers {
		if loc := marker.FindStringIndex(line); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

// isSectionHeader matches "A. ARITHMETIC OPERATORS" but not a sentence that
// happens to start with a capital letter and a dot.
func isSectionHeader(line string) bool {
	m := sectionLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	return m[2] == strings.ToUpper(m[2])
}

func (b *taskBuilder) startTable(name string) {
	b.tableNum++
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("table%d", b.tableNum)
	}
	b.table = &models.TableData{Name: strings.ToLower(strings.Join(strings.Fields(name), "_"))}
}

func (b *taskBuilder) addTableLine(line string) {
	b.tableLines = append(b.tableLines, line)

	fields := strings.Fields(line)
	if b.table.Columns == nil {
		b.table.Columns = fields
		return
	}

	// surplus values (names with spaces) fold into the last column
	n := len(b.table.Columns)
	if len(fields) > n && n > 0 {
		merged := append([]string{}, fields[:n-1]...)
		merged = append(merged, strings.Join(fields[n-1:], " "))
		fields = merged
	}
	b.table.Rows = append(b.table.Rows, fields)
}

func (b *taskBuilder) flushTable() {
	if b.table == nil {
		return
	}

	b.tasks = append(b.tasks, models.Task{
		ID:    b.uniqueID(fmt.Sprintf("setup-%d", b.tableNum)),
		Kind:  models.TaskKindSetup,
		Label: b.table.Name,
		Text:  strings.Join(b.tableLines, "\n"),
		Table: b.table,
	})

	b.table = nil
	b.tableLines = nil
}

func (b *taskBuilder) startQuestion(number, text string) {
	label := b.section + number
	b.question = &models.Task{
		ID:    b.uniqueID(label),
		Kind:  models.TaskKindQuery,
		Label: label + ".",
	}
	b.questionParts = []string{text}
}

func (b *taskBuilder) flushQuestion() {
	if b.question == nil {
		return
	}

	b.question.Text = strings.Join(b.questionParts, " ")
	b.tasks = append(b.tasks, *b.question)

	b.question = nil
	b.questionParts = nil
}

func (b *taskBuilder) uniqueID(id string) string {
	b.seenIDs[id]++
	if n := b.seenIDs[id]; n > 1 {
		return fmt.Sprintf("%s-%d", id, n)
	}
	return id
}
