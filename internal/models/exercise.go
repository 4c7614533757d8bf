package models

type TaskKind string

const (
	TaskKindSetup TaskKind = "setup"
	TaskKindQuery TaskKind = "query"
)

// TableData is the tabular data printed under a TABLE heading in an exercise.
type TableData struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Task is one setup or query requirement, in document order.
type Task struct {
	ID       string     `json:"id"`
	Kind     TaskKind   `json:"kind"`
	Label    string     `json:"label"`
	Text     string     `json:"text"`
	Table    *TableData `json:"table,omitempty"`
	Position int        `json:"position"`
}

// Exercise is one lab assignment, sourced from one document.
type Exercise struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SourcePath   string `json:"source_path"`
	PracticeText string `json:"-"`
	Tasks        []Task `json:"tasks"`
}

func (e *Exercise) SetupTasks() []Task {
	return e.tasksOfKind(TaskKindSetup)
}

func (e *Exercise) QueryTasks() []Task {
	return e.tasksOfKind(TaskKindQuery)
}

func (e *Exercise) tasksOfKind(kind TaskKind) []Task {
	var tasks []Task
	for _, t := range e.Tasks {
		if t.Kind == kind {
			tasks = append(tasks, t)
		}
	}
	return tasks
}
