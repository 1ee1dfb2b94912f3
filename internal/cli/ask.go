package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/config"
	"github.com/csheth/askdb/internal/export"
	"github.com/csheth/askdb/internal/render"
	"github.com/csheth/askdb/internal/session"
)

// ErrFailedAnswer is returned when the service did not produce an answer.
// The failure message has already been written by then.
var ErrFailedAnswer = errors.New("no answer from the translation service")

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	var savePath string

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question and print the answer",
		Long: `Send a single question and print the answer, the generated SQL,
and the result rows in the configured output format.

Use "-" to read the question from standard input.`,
		Example: `  askdb ask "Show all projects"
  askdb ask -o csv how many orders shipped last week
  echo "top 5 customers by revenue" | askdb ask -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if question == "-" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read question: %w", err)
				}
				question = string(raw)
			}
			return runAsk(cmd, GetConfig(cmd.Context()), question, savePath)
		},
	}

	cmd.Flags().StringVar(&savePath, "save", "", "also save a successful answer to this file (.json or .csv)")

	return cmd
}

func runAsk(cmd *cobra.Command, cfg *config.Config, raw, savePath string) error {
	question, ok := session.Normalize(raw)
	if !ok {
		return errors.New("question is empty")
	}
	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	lifecycle := session.New(client, session.Options{
		CancelSuperseded: cfg.CancelSuperseded,
		Logger:           logger,
	})
	result, _ := lifecycle.Submit(cmd.Context(), question)

	out := cmd.OutOrStdout()
	display := render.Render(lifecycle.State())
	if err := render.Write(out, display, render.Options{Format: format, Plain: plainOutput(cfg, out)}); err != nil {
		return fmt.Errorf("failed to write answer: %w", err)
	}

	if _, failed := result.(ask.Failure); failed {
		if format == render.FormatCSV {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), ask.AnswerOf(result))
		}
		return ErrFailedAnswer
	}

	if savePath != "" {
		entry, err := export.FromResult(question, result, time.Now())
		if err != nil {
			return err
		}
		if err := export.Save(savePath, entry); err != nil {
			return err
		}
		if cfg.Verbose {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", savePath)
		}
	}
	return nil
}
