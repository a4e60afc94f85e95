package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/render"
	"github.com/KoryJCampbell/modelcard/internal/schema"
	"github.com/KoryJCampbell/modelcard/internal/version"
)

type validateFlags struct {
	input    string
	dir      string
	strict   bool
	json     bool
	markdown bool
}

func (a *app) newValidateCmd() *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a modelcard.yaml and report NIST AI RMF coverage",
		Long: "Validate a modelcard.yaml against the schema and report NIST AI RMF coverage.\n" +
			"Exits 2 when validation fails, 1 when the card cannot be read.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Path to modelcard.yaml (default <dir>/modelcard.yaml)")
	cmd.Flags().StringVarP(&f.dir, "dir", "d", ".", "Working directory")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail on missing optional fields")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&f.markdown, "markdown", false, "Print the report as Markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func (a *app) runValidate(f validateFlags) error {
	if err := a.setup(f.dir); err != nil {
		return err
	}

	mode, err := coverage.ParseMode(a.cfg.Validation.Mode)
	if err != nil {
		return &exitError{code: exitCodeError, err: err}
	}
	if f.strict {
		mode = coverage.ModeStrict
	}

	inputPath := resolve(f.dir, f.input)
	if inputPath == "" {
		inputPath = defaultInput(f.dir)
		if inputPath == "" {
			return &exitError{code: exitCodeError, err: fmt.Errorf("no %s in %s (run modelcard init, or pass --input)", DefaultCardFile, f.dir)}
		}
	}
	c, err := a.loadCard(inputPath)
	if err != nil {
		return err
	}

	report := coverage.Validate(c, a.schema, mode)
	a.logger.Debug("validated card", "path", inputPath, "mode", mode, "digest", report.CardDigest)

	switch {
	case f.json:
		data, err := render.ReportJSON(report)
		if err != nil {
			return &exitError{code: exitCodeError, err: err}
		}
		if _, err := a.stdout.Write(data); err != nil {
			return err
		}
	case f.markdown:
		fmt.Fprint(a.stdout, render.ReportMarkdown(report))
	default:
		fmt.Fprint(a.stdout, render.ReportText(report, a.useColor))
	}

	if !report.Pass {
		return &exitError{code: exitCodeValidation}
	}
	return nil
}

func (a *app) newSchemaCmd() *cobra.Command {
	var shape bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the model card JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := schema.Document
			if shape {
				mode = schema.ShapeOnly
			}
			data, err := a.schema.JSONSchema(mode)
			if err != nil {
				return &exitError{code: exitCodeError, err: err}
			}
			_, err = fmt.Fprintf(a.stdout, "%s\n", data)
			return err
		},
	}
	cmd.Flags().BoolVar(&shape, "shape", false, "Print the structural schema the loader enforces")
	return cmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the modelcard version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "modelcard %s (schema %s)\n", version.String(), a.schema.Version())
			return err
		},
	}
}
