package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"talkdeck/internal/config"
	"talkdeck/internal/db"
	"talkdeck/internal/editor"
	"talkdeck/internal/execution"
	"talkdeck/internal/logging"
	"talkdeck/internal/services"
	"talkdeck/internal/slides"
	"talkdeck/internal/storage"
	"talkdeck/internal/tui"
)

var (
	slideNumber  int
	slidesFile   string
	dbPath       string
	endpoint     string
	resume       bool
	progressPath string
	logFile      string
	verbose      bool

	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "present",
	Short: "Present the talk in the terminal",
	Long: `present drives the slide deck from the keyboard.

Arrow keys, Page Up/Down and space move between slides, Home and End jump to
the ends. Editor slides run their code against the execution endpoint with r.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if logFile == "" {
			return nil
		}
		var err error
		logger, err = logging.NewFile(cfg.Logging, logFile)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runPresenter,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the slides of the deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%d slides)\n", reg.Title(), reg.Len())
		if progress, err := services.NewProgressStore(progressPath, logger); err == nil {
			if p, ok := progress.Get(reg.Title()); ok {
				fmt.Fprintf(out, "Last shown: slide %d, %s\n", p.Index+1, humanize.Time(p.UpdatedAt))
			}
		}
		for i, s := range reg.Slides() {
			fmt.Fprintf(out, "%3d  %-12s %-18s %s\n", i+1, s.Kind, s.ID, s.Title)
		}
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Fuzzy-find slides by id or title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		matches := reg.Search(strings.Join(args, " "))
		if len(matches) == 0 {
			return fmt.Errorf("no slide matches %q", strings.Join(args, " "))
		}
		out := cmd.OutOrStdout()
		for _, m := range matches {
			s, _ := reg.At(m.Index)
			fmt.Fprintf(out, "%3d  %-18s %s\n", m.Index+1, s.ID, s.Title)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&slidesFile, "slides", "", "YAML slide file (default: built-in talk)")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&progressPath, "progress", defaultDataPath("progress.json"), "file remembering the last shown slide")

	rootCmd.Flags().IntVar(&slideNumber, "slide", 0, "one-based slide to open")
	rootCmd.Flags().StringVar(&dbPath, "db", defaultDataPath("present.db"), "SQLite database for editor drafts")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", cfg.Execution.Endpoint, "code execution endpoint")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "open the slide shown when the last session quit")

	rootCmd.AddCommand(listCmd, findCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPresenter(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if slideNumber < 0 || slideNumber > reg.Len() {
		return fmt.Errorf("--slide must be between 1 and %d", reg.Len())
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	progress, err := services.NewProgressStore(progressPath, logger)
	if err != nil {
		return err
	}

	client := execution.NewClient(endpoint, cfg.Execution.Timeout, logger)
	editors := editor.NewManager(kvFactory(database), client, cfg.Editor.Debounce, logger)
	// drafts are flushed before the database closes
	defer editors.Close()

	model, err := tui.New(tui.Options{
		Registry: reg,
		Editors:  editors,
		Start:    slideNumber - 1,
		Resume:   resume,
		Progress: progress,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer model.Shutdown()

	logger.Info("presenter started", zap.String("title", reg.Title()), zap.Int("slides", reg.Len()))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("presenter failed: %w", err)
	}
	return nil
}

func loadRegistry() (*slides.Registry, error) {
	if slidesFile == "" {
		return slides.Default(), nil
	}
	reg, err := slides.LoadFile(slidesFile)
	if err != nil {
		return nil, err
	}
	if dups := reg.DuplicateIDs(); len(dups) > 0 {
		logger.Warn("slides share ids; editors on them share storage", zap.Strings("ids", dups))
	}
	return reg, nil
}

func kvFactory(database *sql.DB) editor.KVFactory {
	return func(scope string) storage.KV {
		return db.NewKV(database, scope)
	}
}

func defaultDataPath(name string) string {
	return filepath.Join(filepath.Dir(cfg.Database.Path), name)
}
