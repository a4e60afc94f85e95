package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/prompt"
)

type initFlags struct {
	dir   string
	quick bool
	force bool
}

func (a *app) newInitCmd() *cobra.Command {
	var f initFlags
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter modelcard.yaml with NIST AI RMF section comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInit(f)
		},
	}
	cmd.Flags().StringVarP(&f.dir, "dir", "d", ".", "Output directory")
	cmd.Flags().BoolVarP(&f.quick, "quick", "q", false, "Prompt for model name, version, authors and description")
	cmd.Flags().BoolVar(&f.force, "force", false, "Overwrite an existing modelcard.yaml")
	return cmd
}

func (a *app) runInit(f initFlags) error {
	if err := a.setup(f.dir); err != nil {
		return err
	}

	path := filepath.Join(f.dir, DefaultCardFile)
	if _, err := os.Stat(path); err == nil && !f.force {
		return &exitError{code: exitCodeError, err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
	}

	c := card.New(a.schema)
	if f.quick {
		qs := prompt.QuickQuestions(c)
		answers, err := a.ask(qs)
		if err != nil {
			return err
		}
		c = prompt.Apply(c, qs, answers)
	}

	data, err := card.Template(c, a.schema)
	if err != nil {
		return &exitError{code: exitCodeError, err: err}
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return &exitError{code: exitCodeError, err: fmt.Errorf("create directory: %w", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &exitError{code: exitCodeError, err: fmt.Errorf("write %s: %w", path, err)}
	}

	fmt.Fprintf(a.stdout, "Created %s\n", path)
	fmt.Fprintln(a.stdout, "Fill in the required fields, then run: modelcard validate")
	return nil
}
