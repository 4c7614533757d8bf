package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mpataki/tada/internal/config"
	"github.com/mpataki/tada/internal/orchestrator"
	"github.com/mpataki/tada/internal/storage"
	"github.com/mpataki/tada/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tada",
		Short:         "Database lab report generator",
		Long:          "Tada turns database lab exercise PDFs into finished reports: it generates the SQL, runs it and writes DOCX and PDF files.",
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newProfileCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newDeleteCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func openStore() (*config.Config, *storage.Storage, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, store, nil
}

// runTUI opens the run browser, or prints the history when stdin is not a
// terminal.
func runTUI(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	orch := orchestrator.New(orchestrator.Deps{Storage: store})

	if !interactive() {
		runs, err := orch.ListRuns(20)
		if err != nil {
			return err
		}
		fmt.Print(tui.RenderHistory(runs))
		return nil
	}

	app := tui.NewApp(orch)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			fmt.Print(tui.RenderHistory(runs))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show a run and its exercises",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}

			outcomes, err := store.GetOutcomesForRun(runID)
			if err != nil {
				return err
			}

			fmt.Printf("Selector: %s\n", run.Selector)
			fmt.Printf("Input:    %s\n", run.InputDir)
			fmt.Printf("Output:   %s\n", run.OutputDir)
			if run.SkipDB {
				fmt.Println("Database: skipped")
			} else {
				fmt.Printf("Database: %s\n", run.DBType)
			}
			fmt.Println()
			fmt.Print(tui.RenderSummary(run, outcomes))
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run from the history",
		Long:  "Delete a run and its exercise outcomes from the history. Generated reports are left on disk.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			orch := orchestrator.New(orchestrator.Deps{Storage: store})

			if err := orch.DeleteRun(runID); err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}

			fmt.Printf("Deleted run #%d\n", runID)
			return nil
		},
	}
}
