// Package cli provides the askdb command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/config"
	"github.com/csheth/askdb/internal/logging"
	"github.com/csheth/askdb/internal/render"
	"github.com/csheth/askdb/internal/tui"
)

// Version is set at build time.
var Version = "0.1.0"

type configKey struct{}

// NewRootCmd creates and returns the root command. Without a subcommand it
// starts the interactive screen.
func NewRootCmd() *cobra.Command {
	var cfgFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "askdb",
		Short: "Ask a database questions in plain language",
		Long: `askdb sends a natural-language question to a translation service,
which turns it into SQL, runs it, and returns an answer with the query
and its result rows.`,
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(config.Options{
				File:    cfgFile,
				EnvFile: envFile,
				Flags:   cmd.Root().PersistentFlags(),
			})
			if err != nil {
				return err
			}
			if cfg.NoColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			if cfg.Verbose && cfg.FileUsed != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", cfg.FileUsed)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, GetConfig(cmd.Context()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./askdb.yaml)")
	flags.StringVar(&envFile, "env-file", "", "dotenv file with ASKDB_* variables (default: ./.env)")
	flags.String("endpoint", "", "translation service base URL")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Bool("status-check", true, "treat non-2xx responses as failures")
	flags.Bool("cancel-superseded", true, "cancel an in-flight request when a newer question is sent")
	flags.StringP("output", "o", "", "output format (table|json|csv|markdown)")
	flags.String("export-dir", "", "directory for exported answers")
	flags.String("log-file", "", "append logs to this file")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.Bool("log-json", false, "write logs as JSON")
	flags.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flags.Bool("no-color", false, "disable colors and box drawing")
	flags.BoolP("verbose", "v", false, "verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(render.Formats))
		for _, f := range render.Formats {
			names = append(names, string(f))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewAskCommand())
	rootCmd.AddCommand(NewREPLCommand())
	rootCmd.AddCommand(NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command. A failed answer has already been printed,
// so only the exit status reports it.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrFailedAnswer) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// GetConfig retrieves the config stored by the root command.
func GetConfig(ctx context.Context) *config.Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return c
		}
	}
	return &config.Config{
		Endpoint:         ask.DefaultEndpoint,
		Timeout:          config.DefaultTimeout,
		StatusCheck:      true,
		CancelSuperseded: true,
		Output:           config.DefaultOutput,
		ExportDir:        config.DefaultExportDir(),
		LogLevel:         config.DefaultLogLevel,
	}
}

func newClient(cfg *config.Config) (*ask.HTTPClient, error) {
	client, err := ask.New(ask.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout,
		StatusCheck: cfg.StatusCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// openLogger sends logs to log_file when set. Otherwise verbose runs log to
// console, and everything else is discarded. console may be nil.
func openLogger(cfg *config.Config, console io.Writer) (*slog.Logger, func(), error) {
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		return logging.New(*cfg, f), func() { _ = f.Close() }, nil
	}
	if cfg.Verbose && console != nil {
		return logging.New(*cfg, console), func() {}, nil
	}
	return logging.New(*cfg, nil), func() {}, nil
}

// plainOutput reports whether tables should stick to ASCII.
func plainOutput(cfg *config.Config, w io.Writer) bool {
	if cfg.NoColor {
		return true
	}
	f, ok := w.(*os.File)
	return !ok || !term.IsTerminal(int(f.Fd()))
}

func runTUI(cmd *cobra.Command, cfg *config.Config) error {
	logger, closeLog, err := openLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Client:           client,
			CancelSuperseded: cfg.CancelSuperseded,
			ExportDir:        cfg.ExportDir,
			Logger:           logger,
			Context:          cmd.Context(),
		}),
		opts...,
	)

	logger.Info("starting interactive session", "endpoint", client.Endpoint())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
