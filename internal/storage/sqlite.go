package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mpataki/tada/internal/models"
	_ "modernc.org/sqlite"
)

// Storage is the run ledger: one row per run, one per exercise attempted.
type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps ":memory:"
	// databases alive between calls
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		selector TEXT NOT NULL,
		input_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		db_type TEXT NOT NULL,
		skip_db INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		exercise_id TEXT NOT NULL,
		source_path TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		stage TEXT NOT NULL DEFAULT 'extract',
		error TEXT,
		docx_path TEXT,
		pdf_path TEXT,
		statements INTEGER NOT NULL DEFAULT 0,
		sequence_num INTEGER NOT NULL,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		UNIQUE(run_id, sequence_num)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return nil
}

func (s *Storage) CreateRun(run *models.Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (selector, input_dir, output_dir, db_type, skip_db, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Selector, run.InputDir, run.OutputDir, run.DBType, run.SkipDB, run.Status,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const runColumns = `id, created_at, completed_at, selector, input_dir, output_dir, db_type, skip_db, status`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.CreatedAt, &completedAt, &run.Selector,
		&run.InputDir, &run.OutputDir, &run.DBType, &run.SkipDB, &run.Status,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

func (s *Storage) GetRun(id int64) (*models.Run, error) {
	return scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
}

func (s *Storage) UpdateRun(run *models.Run) error {
	_, err := s.db.Exec(
		`UPDATE runs SET completed_at = ?, status = ? WHERE id = ?`,
		run.CompletedAt, run.Status, run.ID,
	)
	return err
}

func (s *Storage) ListRuns(limit int) ([]*models.Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *Storage) CreateOutcome(o *models.ExerciseOutcome) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO outcomes (run_id, exercise_id, source_path, status, stage, error, docx_path, pdf_path, statements, sequence_num, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.ExerciseID, o.SourcePath, o.Status, o.Stage, o.Error,
		o.DocxPath, o.PDFPath, o.Statements, o.SequenceNum, o.StartedAt, o.CompletedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Storage) UpdateOutcome(o *models.ExerciseOutcome) error {
	_, err := s.db.Exec(
		`UPDATE outcomes SET exercise_id = ?, status = ?, stage = ?, error = ?, docx_path = ?, pdf_path = ?, statements = ?, started_at = ?, completed_at = ?
		 WHERE id = ?`,
		o.ExerciseID, o.Status, o.Stage, o.Error, o.DocxPath, o.PDFPath, o.Statements, o.StartedAt, o.CompletedAt, o.ID,
	)
	return err
}

func (s *Storage) GetOutcomesForRun(runID int64) ([]*models.ExerciseOutcome, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, exercise_id, source_path, status, stage, error, docx_path, pdf_path, statements, sequence_num, started_at, completed_at
		 FROM outcomes WHERE run_id = ? ORDER BY sequence_num`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []*models.ExerciseOutcome
	for rows.Next() {
		var o models.ExerciseOutcome
		var errText, docxPath, pdfPath sql.NullString
		var startedAt, completedAt sql.NullTime

		err := rows.Scan(
			&o.ID, &o.RunID, &o.ExerciseID, &o.SourcePath, &o.Status, &o.Stage,
			&errText, &docxPath, &pdfPath, &o.Statements, &o.SequenceNum, &startedAt, &completedAt,
		)
		if err != nil {
			return nil, err
		}

		o.Error = errText.String
		o.DocxPath = docxPath.String
		o.PDFPath = pdfPath.String
		if startedAt.Valid {
			o.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			o.CompletedAt = &completedAt.Time
		}

		outcomes = append(outcomes, &o)
	}

	return outcomes, rows.Err()
}

func (s *Storage) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM outcomes WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", id)
	}

	return tx.Commit()
}

// FormatTimeAgo renders t relative to now for listings.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
