package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/codeindex"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/draft"
	"github.com/KoryJCampbell/modelcard/internal/llm"
	"github.com/KoryJCampbell/modelcard/internal/profile"
	"github.com/KoryJCampbell/modelcard/internal/prompt"
	"github.com/KoryJCampbell/modelcard/internal/render"
)

type generateFlags struct {
	format        string
	input         string
	output        string
	dir           string
	ai            bool
	repo          string
	noInteractive bool
	save          bool
	provider      string
	model         string
	profileName   string
}

func (a *app) newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a model card via interactive prompts or from existing YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: markdown, json, html (default from config, else markdown)")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Path to an existing modelcard.yaml (default <dir>/modelcard.yaml when present)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path, relative to --dir (default stdout)")
	cmd.Flags().StringVarP(&f.dir, "dir", "d", ".", "Working directory")
	cmd.Flags().BoolVar(&f.ai, "ai", false, "Draft missing fields with a language model")
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository analyzed for AI drafting (default --dir)")
	cmd.Flags().BoolVar(&f.noInteractive, "no-interactive", false, "Skip interactive prompts")
	cmd.Flags().BoolVar(&f.save, "save", false, "Write the completed card back to the input YAML")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: anthropic, openai, google")
	cmd.Flags().StringVar(&f.model, "model", "", "LLM model name")
	cmd.Flags().StringVar(&f.profileName, "profile", "", "Drafting profile: "+fmt.Sprint(profile.Names()))
	return cmd
}

func (a *app) runGenerate(ctx context.Context, f generateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.setup(f.dir); err != nil {
		return err
	}

	formatName := f.format
	if formatName == "" {
		formatName = a.cfg.Output.Format
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return &exitError{code: exitCodeError, err: err}
	}

	inputPath := resolve(f.dir, f.input)
	if inputPath == "" {
		inputPath = defaultInput(f.dir)
	}
	c, err := a.loadCard(inputPath)
	if err != nil {
		return err
	}

	report := coverage.Validate(c, a.schema, coverage.ModeLenient)

	if !f.noInteractive && a.interactive {
		qs := prompt.MissingRequired(report, a.schema)
		if c.Metadata.ModelName == "" {
			qs = append(prompt.QuickQuestions(c)[:1], qs...)
		}
		if len(qs) > 0 {
			answers, err := a.ask(qs)
			if err != nil {
				return err
			}
			c = prompt.Apply(c, qs, answers)
			report = coverage.Validate(c, a.schema, coverage.ModeLenient)
		}
	}

	if f.ai {
		c, err = a.draftGaps(ctx, c, report, f)
		if err != nil {
			return err
		}
		report = coverage.Validate(c, a.schema, coverage.ModeLenient)
	}

	if c.Metadata.GeneratedAt == "" {
		c.Metadata.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if f.save {
		savePath := inputPath
		if savePath == "" {
			savePath = resolve(f.dir, DefaultCardFile)
		}
		data, err := card.Template(c, a.schema)
		if err != nil {
			return &exitError{code: exitCodeError, err: err}
		}
		if err := a.writeOutput(savePath, data); err != nil {
			return err
		}
	}

	out, err := render.Render(c, a.schema, format)
	if err != nil {
		return &exitError{code: exitCodeError, err: err}
	}
	if err := a.writeOutput(resolve(f.dir, f.output), out); err != nil {
		return err
	}

	reqGaps, optGaps := report.CountGaps()
	a.logger.Info("generated model card",
		"format", format,
		"score", report.Score,
		"required_gaps", reqGaps,
		"optional_gaps", optGaps,
	)
	return nil
}

// draftGaps fills gaps with the configured language model. An unavailable
// provider and per-field drafting problems are logged as warnings and leave
// the card as it was.
func (a *app) draftGaps(ctx context.Context, c *card.Card, report *coverage.Report, f generateFlags) (*card.Card, error) {
	dc := a.cfg.Draft
	if f.provider != "" {
		dc.Provider = f.provider
		if f.model == "" {
			dc.Model = ""
		}
	}
	if f.model != "" {
		dc.Model = f.model
	}
	if f.profileName != "" {
		dc.Profile = f.profileName
	}
	prof, err := profile.Load(dc.Profile)
	if err != nil {
		return nil, &exitError{code: exitCodeError, err: err}
	}

	suggester, err := llm.NewSuggester(llm.Options{
		Provider:    dc.Provider,
		Model:       dc.Model,
		MaxTokens:   dc.MaxTokens,
		Temperature: dc.Temperature,
		Profile:     prof,
		RepoBudget:  dc.RepoBudget,
		Debug:       a.logger.Enabled(ctx, slog.LevelDebug),
		Logger:      a.logger,
	})
	if err != nil {
		a.logger.Warn("drafting unavailable, gaps left blank", "provider", dc.Provider, "error", err)
		return c, nil
	}

	repoPath := f.repo
	if repoPath == "" {
		repoPath = f.dir
	}
	idx, err := codeindex.Build(repoPath, a.cfg.Repo.Exclude)
	if err != nil {
		return nil, &exitError{code: exitCodeError, err: err}
	}
	summary := idx.Summary(dc.RepoBudget)
	a.logger.Debug("indexed repository", "path", repoPath, "files", len(idx.Files), "summary_bytes", len(summary))

	d := &draft.Drafter{
		Suggester:     suggester,
		Schema:        a.schema,
		Timeout:       dc.Timeout,
		Concurrency:   dc.Concurrency,
		RatePerSecond: dc.RatePerSecond,
		RequiredOnly:  dc.RequiredOnly,
		Logger:        a.logger,
	}
	res := d.Draft(ctx, c, report, draft.RepoContext{Path: repoPath, Summary: summary})
	a.logger.Info("drafting finished", "drafted", len(res.Drafted), "warnings", len(res.Warnings))
	return res.Card, nil
}
