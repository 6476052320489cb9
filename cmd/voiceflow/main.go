package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nhle/voiceflow/internal/ai"
	"github.com/nhle/voiceflow/internal/app"
	"github.com/nhle/voiceflow/internal/credential"
	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/reminder"
	"github.com/nhle/voiceflow/internal/session"
	"github.com/nhle/voiceflow/internal/speech"
	"github.com/nhle/voiceflow/internal/store"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "voiceflow",
		Short: "Voice-driven task and calendar assistant",
		Long: "VoiceFlow turns spoken commands into tasks and calendar events\n" +
			"and reminds you before they are due.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(configPath)
		},
	}

	root.PersistentFlags().StringVar(
		&configPath, "config", model.DefaultConfigPath(), "path to config file",
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "setup",
			Short: "Run first-time setup (API key, user profile)",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := model.LoadConfig(configPath)
				if err != nil {
					return err
				}
				return app.RunSetup(configPath, cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(version)
			},
		},
	)

	return root
}

func runApp(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if app.NeedsSetup(cfg) {
		if err := app.RunSetup(configPath, cfg); err != nil {
			return err
		}
	}

	// Log to a file so structured output never corrupts the TUI.
	if err := setupLogging(configPath); err != nil {
		return err
	}

	apiKey, err := credential.Get(credential.KeyAPIKey)
	if err != nil {
		return fmt.Errorf("loading API key (run 'voiceflow setup'): %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = model.DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	bus := reminder.NewBus()

	var sink reminder.Sink = reminder.NewDesktopSink()
	reminders := reminder.NewSystem(reminder.SystemClock(), sink, bus)
	defer reminders.ClearAll()

	completer := ai.NewClient(
		apiKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.MaxTokens, cfg.AI.Temperature,
	)
	parser := ai.NewParser(completer)

	transcriber := speech.NewWhisperClient(apiKey, cfg.Speech.BaseURL, cfg.Speech.Model)
	recorder := speech.NewCommandRecorder(cfg.Speech.RecordCommand)

	controller := session.NewController(
		recorder, transcriber, parser, s, reminders, cfg.UserID,
	)

	program := tea.NewProgram(
		app.New(s, controller, reminders, bus, cfg.UserID),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// setupLogging sends zerolog output to voiceflow.log beside the config file.
func setupLogging(configPath string) error {
	logPath := filepath.Join(filepath.Dir(configPath), "voiceflow.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return nil
}
