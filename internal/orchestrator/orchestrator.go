package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/mpataki/tada/internal/catalog"
	"github.com/mpataki/tada/internal/execute"
	"github.com/mpataki/tada/internal/generate"
	"github.com/mpataki/tada/internal/models"
	"github.com/mpataki/tada/internal/report"
	"github.com/mpataki/tada/internal/storage"
	"github.com/mpataki/tada/internal/workspace"
	"go.uber.org/zap"
)

type Extractor interface {
	Extract(ctx context.Context, path string) (*models.Exercise, error)
}

type Generator interface {
	Generate(ctx context.Context, task models.Task, c *generate.Context) (*models.GeneratedStatement, error)
}

// Deps are the stage implementations. Executor is only used when the run
// does not skip the database.
type Deps struct {
	Storage   *storage.Storage
	Extractor Extractor
	Generator Generator
	Executor  execute.Executor
	Logger    *zap.Logger
	Out       io.Writer
}

type Options struct {
	Selector  string
	InputDir  string
	OutputDir string
	DBType    string
	SkipDB    bool
	Font      string
	Profile   models.StudentProfile
}

type Orchestrator struct {
	storage   *storage.Storage
	extractor Extractor
	generator Generator
	executor  execute.Executor
	logger    *zap.Logger
	out       io.Writer
}

func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{
		storage:   deps.Storage,
		extractor: deps.Extractor,
		generator: deps.Generator,
		executor:  deps.Executor,
		logger:    logger,
		out:       out,
	}
}

type RunResult struct {
	Run      *models.Run
	Outcomes []*models.ExerciseOutcome
}

// Failed reports whether any exercise of the run failed.
func (r *RunResult) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

// Run processes the exercises one after another. A failing exercise is
// recorded and the next one still runs; the returned error covers only
// ledger or output directory problems.
func (o *Orchestrator) Run(ctx context.Context, refs []catalog.Ref, opts Options) (*RunResult, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = opts.InputDir
	}

	run := &models.Run{
		Selector:  opts.Selector,
		InputDir:  opts.InputDir,
		OutputDir: outputDir,
		DBType:    opts.DBType,
		SkipDB:    opts.SkipDB,
		Status:    models.RunStatusPending,
	}
	runID, err := o.storage.CreateRun(run)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	run.ID = runID

	ws, err := workspace.Create(outputDir)
	if err != nil {
		o.finishRun(run, models.RunStatusFailed)
		return nil, err
	}

	run.Status = models.RunStatusRunning
	if err := o.storage.UpdateRun(run); err != nil {
		return nil, err
	}

	executor := o.executor
	if opts.SkipDB {
		executor = execute.SkipExecutor{}
	}

	result := &RunResult{Run: run}
	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		outcome := &models.ExerciseOutcome{
			RunID:       run.ID,
			ExerciseID:  ref.ID,
			SourcePath:  ref.Path,
			Status:      models.OutcomeStatusPending,
			Stage:       models.StageExtract,
			SequenceNum: i + 1,
		}
		outcomeID, err := o.storage.CreateOutcome(outcome)
		if err != nil {
			return nil, fmt.Errorf("failed to create outcome: %w", err)
		}
		outcome.ID = outcomeID
		result.Outcomes = append(result.Outcomes, outcome)

		fmt.Fprintf(o.out, "\n[%d/%d] %s\n", i+1, len(refs), filepath.Base(ref.Path))

		startedAt := time.Now()
		outcome.StartedAt = &startedAt
		outcome.Status = models.OutcomeStatusRunning
		if err := o.storage.UpdateOutcome(outcome); err != nil {
			return nil, err
		}

		err = o.processExercise(ctx, ref, opts, ws, executor, outcome)

		completedAt := time.Now()
		outcome.CompletedAt = &completedAt
		if err != nil {
			outcome.Status = models.OutcomeStatusFailed
			outcome.Error = err.Error()
			fmt.Fprintf(o.out, "  [x] failed during %s: %v\n", outcome.Stage, err)
			o.logger.Warn("exercise failed",
				zap.String("exercise", outcome.ExerciseID),
				zap.String("stage", string(outcome.Stage)),
				zap.Error(err))
		} else {
			outcome.Status = models.OutcomeStatusComplete
			outcome.Stage = models.StageDone
		}
		if err := o.storage.UpdateOutcome(outcome); err != nil {
			return nil, err
		}
	}

	status := models.RunStatusComplete
	if result.Failed() || ctx.Err() != nil {
		status = models.RunStatusFailed
	}
	if err := o.finishRun(run, status); err != nil {
		return nil, err
	}

	return result, nil
}

// processExercise moves one exercise through the stages, keeping
// outcome.Stage on the stage being worked on. Reports are only written once
// every stage before rendering succeeded.
func (o *Orchestrator) processExercise(ctx context.Context, ref catalog.Ref, opts Options, ws *workspace.Workspace, executor execute.Executor, outcome *models.ExerciseOutcome) error {
	outcome.Stage = models.StageExtract
	ex, err := o.extractor.Extract(ctx, ref.Path)
	if err != nil {
		return err
	}
	outcome.ExerciseID = ex.ID
	fmt.Fprintf(o.out, "  Exercise #%s: %s (%d setup, %d query tasks)\n", ex.ID, ex.Title, len(ex.SetupTasks()), len(ex.QueryTasks()))

	outcome.Stage = models.StageGenerate
	prefix := opts.Profile.TablePrefix()
	gctx := &generate.Context{Dialect: opts.DBType, Prefix: prefix}

	statements := make([]models.GeneratedStatement, 0, len(ex.Tasks))
	for _, task := range ex.Tasks {
		stmt, err := o.generator.Generate(ctx, task, gctx)
		if err != nil {
			return err
		}
		statements = append(statements, *stmt)
		outcome.Statements = len(statements)
	}
	fmt.Fprintf(o.out, "  Generated %d statements\n", len(statements))

	outcome.Stage = models.StageExecute
	if err := executor.Prepare(ctx, prefix); err != nil {
		return err
	}

	results := make([]models.ExecutionResult, 0, len(statements))
	for _, stmt := range statements {
		res, err := executor.Execute(ctx, stmt)
		if err != nil {
			return err
		}
		results = append(results, *res)

		mark := "+"
		if res.Failed() {
			mark = "x"
		} else if res.Placeholder {
			mark = "-"
		}
		fmt.Fprintf(o.out, "    [%s] %s\n", mark, stmt.TaskID)
	}

	outcome.Stage = models.StageRender
	rep, err := report.Build(report.Input{
		Exercise:   ex,
		Statements: statements,
		Results:    results,
		Profile:    opts.Profile,
		Font:       opts.Font,
	})
	if err != nil {
		return err
	}

	paths := ws.PathsFor(ex.ID, opts.Profile.RegNo)
	if err := ws.WriteReport(paths, rep.DOCX, rep.PDF); err != nil {
		return &report.RenderError{Format: "output", Err: err}
	}
	if err := ws.WriteManifest(paths, &workspace.Manifest{
		ExerciseID: ex.ID,
		Title:      ex.Title,
		SourcePath: ex.SourcePath,
		Student:    opts.Profile.Name,
		RegNo:      opts.Profile.RegNo,
		SkipDB:     opts.SkipDB,
		Tasks:      ex.Tasks,
		Statements: statements,
		Results:    results,
	}); err != nil {
		// the report itself is complete
		o.logger.Warn("failed to write manifest", zap.String("path", paths.Manifest), zap.Error(err))
	}

	outcome.DocxPath = paths.Docx
	outcome.PDFPath = paths.PDF
	fmt.Fprintf(o.out, "  Word: %s\n  PDF:  %s\n", filepath.Base(paths.Docx), filepath.Base(paths.PDF))
	return nil
}

func (o *Orchestrator) finishRun(run *models.Run, status models.RunStatus) error {
	now := time.Now()
	run.Status = status
	run.CompletedAt = &now
	return o.storage.UpdateRun(run)
}

func (o *Orchestrator) ListRuns(limit int) ([]*models.Run, error) {
	return o.storage.ListRuns(limit)
}

func (o *Orchestrator) GetRun(id int64) (*models.Run, error) {
	return o.storage.GetRun(id)
}

func (o *Orchestrator) GetOutcomesForRun(runID int64) ([]*models.ExerciseOutcome, error) {
	return o.storage.GetOutcomesForRun(runID)
}

func (o *Orchestrator) DeleteRun(runID int64) error {
	if _, err := o.storage.GetRun(runID); err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	return o.storage.DeleteRun(runID)
}
