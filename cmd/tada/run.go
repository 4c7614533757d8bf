package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mpataki/tada/internal/catalog"
	"github.com/mpataki/tada/internal/config"
	"github.com/mpataki/tada/internal/execute"
	"github.com/mpataki/tada/internal/extract"
	"github.com/mpataki/tada/internal/generate"
	"github.com/mpataki/tada/internal/hooks"
	"github.com/mpataki/tada/internal/logging"
	"github.com/mpataki/tada/internal/models"
	"github.com/mpataki/tada/internal/orchestrator"
	"github.com/mpataki/tada/internal/profile"
	"github.com/mpataki/tada/internal/report"
	"github.com/mpataki/tada/internal/retry"
	"github.com/mpataki/tada/internal/storage"
	"github.com/mpataki/tada/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate reports for one exercise or all of them",
		Example: `  tada run --exercise 4
  tada run --exercise all --skip-db
  tada run -e 2 --db-type sqlite --font "Times New Roman"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exercise, _ := cmd.Flags().GetString("exercise")
			skipDB, _ := cmd.Flags().GetBool("skip-db")
			font, _ := cmd.Flags().GetString("font")
			inputDir, _ := cmd.Flags().GetString("input-dir")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			dbType, _ := cmd.Flags().GetString("db-type")
			noConfig, _ := cmd.Flags().GetBool("no-config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.EnsureDataDir(); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			logger, err := logging.New(cfg.LogLevel, verbose)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			if inputDir == "" {
				inputDir = cfg.InputDir
			}
			if dbType == "" {
				dbType = cfg.Database.Type
			}
			dialect, err := execute.ParseDialect(dbType)
			if err != nil {
				return err
			}

			refs, err := catalog.Discover(inputDir)
			if err != nil {
				return err
			}
			selected, err := catalog.Select(refs, exercise)
			if err != nil {
				return err
			}

			student, err := loadProfile(cfg, noConfig)
			if err != nil {
				return err
			}

			keys, err := cfg.Credentials()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			generator, closeHooks, err := newGenerator(ctx, cfg, keys, logger)
			if err != nil {
				return err
			}
			defer closeHooks()

			client := execute.NewClient(dialect, execute.Strategies(dialect, withDialect(cfg.Database, dialect)), logger)
			defer client.Close()

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			orch := orchestrator.New(orchestrator.Deps{
				Storage:   store,
				Extractor: extract.New(extract.PDFSource{}, logger),
				Generator: generator,
				Executor:  client,
				Logger:    logger,
				Out:       os.Stdout,
			})

			fmt.Printf("Processing %d exercise(s) from %s\n", len(selected), inputDir)
			if skipDB {
				fmt.Println("Skipping database execution (--skip-db)")
			}

			result, err := orch.Run(ctx, selected, orchestrator.Options{
				Selector:  exercise,
				InputDir:  inputDir,
				OutputDir: outputDir,
				DBType:    string(dialect),
				SkipDB:    skipDB,
				Font:      font,
				Profile:   *student,
			})
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Print(tui.RenderSummary(result.Run, result.Outcomes))

			if ctx.Err() != nil {
				return errors.New("interrupted")
			}
			if result.Failed() {
				return fmt.Errorf("run #%d finished with failed exercises", result.Run.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringP("exercise", "e", "all", "Exercise number or \"all\"")
	cmd.Flags().Bool("skip-db", false, "Don't connect to a database; results become placeholders")
	cmd.Flags().String("font", report.DefaultFont, "Report body font")
	cmd.Flags().StringP("input-dir", "i", "", "Directory with the exercise PDFs (default $LAB_DIR or .)")
	cmd.Flags().StringP("output-dir", "o", "", "Directory for the reports (default: input directory)")
	cmd.Flags().String("db-type", "", "oracle, mysql or sqlite (default $DB_TYPE or oracle)")
	cmd.Flags().Bool("no-config", false, "Never prompt for the student profile; use the saved values or defaults")
	return cmd
}

// newGenerator wires the model candidates, the retry policy and the optional
// Lua hook. The returned func releases the hook state.
func newGenerator(ctx context.Context, cfg *config.Config, keys []string, logger *zap.Logger) (*generate.Generator, func(), error) {
	candidates, err := generate.Candidates(ctx, cfg.Generation.Provider, keys, cfg.Generation.Models, cfg.Generation.OpenAIBaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up models: %w", err)
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Generation.MaxAttempts
	policy.InitialDelay = cfg.Generation.RetryDelay

	opts := []generate.Option{generate.WithInterval(cfg.Generation.RequestInterval)}

	closeHooks := func() {}
	rt, err := hooks.Load(cfg.HooksPath, logger)
	if err != nil {
		return nil, nil, err
	}
	if rt != nil {
		logger.Info("loaded statement hooks", zap.String("path", cfg.HooksPath))
		opts = append(opts, generate.WithRewriter(rt))
		closeHooks = rt.Close
	}

	return generate.New(candidates, policy, logger, opts...), closeHooks, nil
}

// withDialect keeps the configured port in line with a --db-type override.
func withDialect(db config.DatabaseConfig, d execute.Dialect) config.DatabaseConfig {
	if string(d) == db.Type {
		return db
	}
	if _, set := os.LookupEnv("DB_PORT"); !set {
		switch d {
		case execute.DialectMySQL:
			db.Port = 3306
		case execute.DialectOracle:
			db.Port = 1521
		}
	}
	db.Type = string(d)
	return db
}

// loadProfile returns the saved profile. On a terminal a missing or
// incomplete profile is asked for and saved, unless noPrompt is set; blank
// fields then fall back to the report defaults.
func loadProfile(cfg *config.Config, noPrompt bool) (*models.StudentProfile, error) {
	p, found, err := profile.Load(cfg.ProfilePath, cfg.Defaults)
	if err != nil {
		return nil, err
	}
	if (found && p.Complete()) || noPrompt || !interactive() {
		return p, nil
	}
	return promptProfile(cfg, *p)
}

func promptProfile(cfg *config.Config, initial models.StudentProfile) (*models.StudentProfile, error) {
	entered, err := tui.RunProfileForm(initial)
	if err != nil {
		return nil, err
	}
	if err := profile.Save(cfg.ProfilePath, entered); err != nil {
		return nil, err
	}
	fmt.Printf("Profile saved to %s\n", cfg.ProfilePath)
	return entered, nil
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the exercises found in the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputDir, _ := cmd.Flags().GetString("input-dir")

			cfg, err := config.New()
			if err != nil {
				return err
			}
			if inputDir == "" {
				inputDir = cfg.InputDir
			}

			refs, err := catalog.Discover(inputDir)
			if err != nil {
				return err
			}

			if len(refs) == 0 {
				fmt.Printf("No exercise PDFs found in %s\n", inputDir)
				return nil
			}

			for _, ref := range refs {
				fmt.Printf("Ex %-3s %-40s %s\n", ref.ID, tui.Truncate(ref.Title, 40), filepath.Base(ref.Path))
			}
			return nil
		},
	}

	cmd.Flags().StringP("input-dir", "i", "", "Directory with the exercise PDFs (default $LAB_DIR or .)")
	return cmd
}

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the saved student profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}

			p, found, err := profile.Load(cfg.ProfilePath, cfg.Defaults)
			if err != nil {
				return err
			}

			changed := false
			for flag, field := range map[string]*string{
				"name":     &p.Name,
				"regno":    &p.RegNo,
				"slot":     &p.Slot,
				"class-no": &p.ClassNo,
				"faculty":  &p.Faculty,
			} {
				if cmd.Flags().Changed(flag) {
					*field, _ = cmd.Flags().GetString(flag)
					changed = true
				}
			}
			p.RegNo = strings.ToUpper(strings.TrimSpace(p.RegNo))

			if !changed {
				if !found {
					if !interactive() {
						fmt.Println("No profile saved. Use --name and --regno to create one.")
						return nil
					}
					_, err := promptProfile(cfg, *p)
					return err
				}
				printProfile(p)
				return nil
			}

			if err := profile.Save(cfg.ProfilePath, p); err != nil {
				return err
			}
			fmt.Printf("Profile saved to %s\n", cfg.ProfilePath)
			printProfile(p)
			return nil
		},
	}

	cmd.Flags().String("name", "", "Student name")
	cmd.Flags().String("regno", "", "Registration number, e.g. 24BCE5561")
	cmd.Flags().String("slot", "", "Lab slot")
	cmd.Flags().String("class-no", "", "Class number")
	cmd.Flags().String("faculty", "", "Faculty name")
	return cmd
}

func printProfile(p *models.StudentProfile) {
	fmt.Printf("Name:     %s\n", p.Name)
	fmt.Printf("Reg. No:  %s\n", p.RegNo)
	fmt.Printf("Slot:     %s\n", p.Slot)
	fmt.Printf("Class No: %s\n", p.ClassNo)
	fmt.Printf("Faculty:  %s\n", p.Faculty)
	if prefix := p.TablePrefix(); prefix != "" {
		fmt.Printf("Tables:   %s*\n", prefix)
	}
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the student's tables and columns in the lab database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbType, _ := cmd.Flags().GetString("db-type")
			prefix, _ := cmd.Flags().GetString("prefix")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.New()
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel, verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if dbType == "" {
				dbType = cfg.Database.Type
			}
			dialect, err := execute.ParseDialect(dbType)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("prefix") {
				p, _, err := profile.Load(cfg.ProfilePath, cfg.Defaults)
				if err != nil {
					return err
				}
				prefix = p.TablePrefix()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			client := execute.NewClient(dialect, execute.Strategies(dialect, withDialect(cfg.Database, dialect)), logger)
			defer client.Close()

			tables, err := client.Inspect(ctx, prefix)
			if err != nil {
				return err
			}

			fmt.Printf("Connected via %s\n\n", client.Strategy())
			if len(tables) == 0 {
				fmt.Printf("No tables matching %q\n", prefix+"*")
				return nil
			}

			for _, t := range tables {
				fmt.Println(t.Name)
				for _, col := range t.Columns {
					fmt.Printf("  %-30s %s\n", col.Name, col.Type)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("db-type", "", "oracle, mysql or sqlite (default $DB_TYPE or oracle)")
	cmd.Flags().String("prefix", "", "Table prefix (default: derived from the saved reg. no)")
	return cmd
}
