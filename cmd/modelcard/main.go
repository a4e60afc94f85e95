package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/config"
	"github.com/KoryJCampbell/modelcard/internal/prompt"
	"github.com/KoryJCampbell/modelcard/internal/schema"
	"github.com/KoryJCampbell/modelcard/internal/version"
)

// Exit codes.
const (
	exitCodeOK         = 0
	exitCodeError      = 1 // malformed input, unsupported format, I/O
	exitCodeValidation = 2 // validation failed
)

// DefaultCardFile is the card file name looked up in the working directory.
const DefaultCardFile = "modelcard.yaml"

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitCodeOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitCodeError
}

// app holds process-wide state shared by the commands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive reports whether prompts may be shown.
	interactive bool
	// asker collects prompt answers; nil means the terminal UI.
	asker prompt.Asker
	// useColor enables colored report output.
	useColor bool

	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	schema *schema.Schema
}

func newApp() *app {
	tty := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	return &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: tty,
		useColor:    isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == "",
		schema:      schema.Default(),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp()
	root := a.newRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintln(a.stderr, "modelcard:", err)
		}
	}
	os.Exit(exitCode(err))
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modelcard",
		Short:         "NIST AI RMF model card generator and compliance checker",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a config file layered over user and project config")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		a.newInitCmd(),
		a.newGenerateCmd(),
		a.newValidateCmd(),
		a.newSchemaCmd(),
		a.newVersionCmd(),
	)
	return root
}

// setup loads configuration for dir and installs the logger. The
// --log-level flag takes precedence over the configured level.
func (a *app) setup(dir string) error {
	level := slog.LevelInfo
	if a.logLevel != "" {
		l, err := config.ParseLevel(a.logLevel)
		if err != nil {
			return &exitError{code: exitCodeError, err: fmt.Errorf("--log-level: %w", err)}
		}
		level = l
	}
	a.installLogger(level)

	cfg, err := config.NewLoader(a.logger).Load(dir, a.configPath)
	if err != nil {
		return &exitError{code: exitCodeError, err: err}
	}
	a.cfg = cfg

	if a.logLevel == "" {
		l, _ := config.ParseLevel(cfg.Log.Level)
		a.installLogger(l)
	}
	if cfg.Output.NoColor {
		a.useColor = false
	}
	return nil
}

func (a *app) installLogger(level slog.Level) {
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
}

// resolve returns p relative to dir unless it is absolute.
func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// defaultInput returns <dir>/modelcard.yaml when it exists, else "".
func defaultInput(dir string) string {
	p := filepath.Join(dir, DefaultCardFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// loadCard loads the card at path, or returns a fresh card when path is empty.
// Load failures map to exitCodeError.
func (a *app) loadCard(path string) (*card.Card, error) {
	if path == "" {
		a.logger.Debug("no input card, starting fresh")
		return card.New(a.schema), nil
	}
	c, err := card.Load(path, a.schema)
	if err != nil {
		return nil, &exitError{code: exitCodeError, err: err}
	}
	a.logger.Debug("loaded card", "path", path)
	return c, nil
}

// ask runs questions through the configured asker.
func (a *app) ask(questions []prompt.Question) (map[string]string, error) {
	asker := a.asker
	if asker == nil {
		asker = prompt.TUI{Input: a.stdin, Output: a.stderr}
	}
	answers, err := asker.Ask(questions)
	if err != nil {
		return nil, &exitError{code: exitCodeError, err: err}
	}
	return answers, nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &exitError{code: exitCodeError, err: fmt.Errorf("create output directory: %w", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &exitError{code: exitCodeError, err: fmt.Errorf("write output: %w", err)}
	}
	a.logger.Info("wrote file", "path", path)
	return nil
}
