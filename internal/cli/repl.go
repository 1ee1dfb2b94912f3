package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/export"
	"github.com/csheth/askdb/internal/render"
	"github.com/csheth/askdb/internal/session"
)

const replPrompt = "askdb> "

// replCommands are the dot-commands the prompt intercepts. Any other line,
// including one that starts with a dot, is sent as a question.
var replCommands = []string{".help", ".quit", ".exit", ".format", ".last", ".export", ".endpoint"}

// isREPLCommand reports whether a single line starts with a known command.
func isREPLCommand(line string) bool {
	if strings.Contains(line, "\n") {
		return false
	}
	fields := strings.Fields(line)
	return len(fields) > 0 && lo.Contains(replCommands, strings.ToLower(fields[0]))
}

// NewREPLCommand creates the line-mode prompt.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Ask questions at a line prompt",
		Long: `Start a prompt that sends every line as a question.

End a line with "\" to continue the question on the next line.
Type .help for commands, .quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cfg := GetConfig(cmd.Context())
	ctx := cmd.Context()

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

	historyFile := cfg.HistoryFile()
	if err := os.MkdirAll(filepath.Dir(historyFile), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := rl.Stdout()
	repl := &replSession{
		out:       out,
		client:    client,
		lifecycle: session.New(client, session.Options{CancelSuperseded: cfg.CancelSuperseded, Logger: logger}),
		format:    format,
		plain:     plainOutput(cfg, os.Stdout),
		exportDir: cfg.ExportDir,
		now:       time.Now,
	}

	_, _ = fmt.Fprintf(out, "askdb (endpoint: %s)\n", client.Endpoint())
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			pending.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if before, ok := strings.CutSuffix(line, `\`); ok {
			pending.WriteString(before)
			pending.WriteString("\n")
			rl.SetPrompt("   ... ")
			continue
		}
		pending.WriteString(line)
		text := pending.String()
		pending.Reset()
		rl.SetPrompt(replPrompt)

		if repl.handleLine(ctx, text) {
			break
		}
	}
	return nil
}

// replSession holds the prompt state between lines.
type replSession struct {
	out       io.Writer
	client    ask.Client
	lifecycle *session.Lifecycle
	format    render.Format
	plain     bool
	exportDir string
	now       func() time.Time

	// question that produced the settled result
	question string
}

// handleLine runs one input line and reports whether the prompt should exit.
func (s *replSession) handleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if isREPLCommand(trimmed) {
		return s.handleDotCommand(trimmed)
	}

	question, _ := session.Normalize(line)
	s.lifecycle.Submit(ctx, question)
	s.question = question
	s.printLast()
	return false
}

// handleDotCommand handles REPL dot-commands. Returns true when the prompt
// should exit.
func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(s.out)
	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "Current format: %s\n", s.format)
			return false
		}
		format, err := render.ParseFormat(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(s.out, "Error: %v\n", err)
			return false
		}
		s.format = format
		_, _ = fmt.Fprintf(s.out, "Output format set to %s\n", format)
	case ".last":
		if _, ok := s.lifecycle.State().Settled(); !ok {
			_, _ = fmt.Fprintln(s.out, "No answer yet.")
			return false
		}
		s.printLast()
	case ".export":
		s.exportLast(parts[1:])
	case ".endpoint":
		_, _ = fmt.Fprintln(s.out, s.client.Endpoint())
	}
	return false
}

func (s *replSession) printLast() {
	state := s.lifecycle.State()
	if err := render.Write(s.out, render.Render(state), render.Options{Format: s.format, Plain: s.plain}); err != nil {
		_, _ = fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if result, ok := state.Settled(); ok {
		if _, failed := result.(ask.Failure); failed && s.format == render.FormatCSV {
			_, _ = fmt.Fprintln(s.out, ask.AnswerOf(result))
		}
	}
	_, _ = fmt.Fprintln(s.out)
}

func (s *replSession) exportLast(args []string) {
	result, ok := s.lifecycle.State().Settled()
	if !ok {
		_, _ = fmt.Fprintln(s.out, "Nothing to export yet.")
		return
	}
	now := s.now()
	entry, err := export.FromResult(s.question, result, now)
	if err != nil {
		_, _ = fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	path := export.DefaultPath(s.exportDir, now)
	if len(args) > 0 {
		path = strings.Join(args, " ")
	}
	if err := export.Save(path, entry); err != nil {
		_, _ = fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(s.out, "Exported to %s\n", path)
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  .help              Show this help")
	_, _ = fmt.Fprintln(w, "  .quit, .exit       Exit the prompt")
	_, _ = fmt.Fprintln(w, "  .format [name]     Show or set the output format (table, json, csv, markdown)")
	_, _ = fmt.Fprintln(w, "  .last              Print the last answer again")
	_, _ = fmt.Fprintln(w, "  .export [path]     Save the last answer (.json or .csv)")
	_, _ = fmt.Fprintln(w, "  .endpoint          Show the service endpoint")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Any other line, even one starting with a dot, is sent as a question.")
	_, _ = fmt.Fprintln(w, "End a line with \\ to continue it.")
}

func newREPLCompleter() *readline.PrefixCompleter {
	formats := lo.Map(render.Formats, func(f render.Format, _ int) readline.PrefixCompleterInterface {
		return readline.PcItem(string(f))
	})
	items := lo.Map(replCommands, func(name string, _ int) readline.PrefixCompleterInterface {
		if name == ".format" {
			return readline.PcItem(name, formats...)
		}
		return readline.PcItem(name)
	})
	return readline.NewPrefixCompleter(items...)
}
