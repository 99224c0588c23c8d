package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	json "github.com/goccy/go-json"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/prompt"
	"github.com/goliatone/go-formflow/pkg/store"
)

// LintCmd validates every definition below Dir.
type LintCmd struct {
	Dir  string `arg:"" type:"existingdir" help:"Directory of journey definitions."`
	JSON bool   `help:"Print the result as JSON."`
}

func (c *LintCmd) Run(g *Globals) error {
	result := definition.Lint(os.DirFS(c.Dir), definition.WithLogger(g.logger()))
	if c.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(g.Out, string(out))
	} else {
		for _, issue := range result.Issues {
			switch {
			case issue.Journey != "":
				fmt.Fprintf(g.Out, "%s: %s: %s\n", issue.Path, issue.Journey, issue.Message)
			default:
				fmt.Fprintf(g.Out, "%s: %s\n", issue.Path, issue.Message)
			}
		}
		fmt.Fprintf(g.Out, "%d files, %d journeys, %d problems\n", result.FileCount, len(result.Journeys), len(result.Issues))
	}
	if !result.Valid {
		return fmt.Errorf("lint found %d problems", len(result.Issues))
	}
	return nil
}

// RenderCmd prints the HTML of one step.
type RenderCmd struct {
	Dir     string `arg:"" type:"existingdir" help:"Directory of journey definitions."`
	Journey string `required:"" help:"Journey slug."`
	Step    string `help:"Step name. Defaults to the first step."`
	Case    string `help:"Case reference whose answers prefill the page." default:"PREVIEW"`
	DB      string `help:"SQLite database holding saved answers."`
}

func (c *RenderCmd) Run(g *Globals) error {
	ctx := context.Background()
	svc, closeStore, err := g.service(ctx, c.Dir, c.DB)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := svc.Engine(c.Journey)
	if err != nil {
		return err
	}
	step := c.Step
	if step == "" {
		step, _ = engine.Journey().Graph.First()
	}
	page, err := engine.Page(ctx, c.Case, step, g.Locale)
	if err != nil {
		return err
	}
	html, err := engine.Render(page)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.Out, html)
	return nil
}

// RunCmd walks a journey on the terminal.
type RunCmd struct {
	Dir     string `arg:"" type:"existingdir" help:"Directory of journey definitions."`
	Journey string `required:"" help:"Journey slug."`
	Case    string `help:"Resume an existing case instead of starting one."`
	Step    string `help:"Step to resume from."`
	DB      string `help:"SQLite database for answers. Answers stay in memory when empty."`
}

func (c *RunCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, closeStore, err := g.service(ctx, c.Dir, c.DB)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := svc.Engine(c.Journey)
	if err != nil {
		return err
	}
	ref := c.Case
	if ref == "" {
		if ref, _, err = engine.Start(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(g.Out, "Case reference: %s\n", ref)

	rec, err := prompt.Run(ctx, engine, prompt.NewSurveyDriver(g.Out), ref, c.Step, g.Locale)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(g.Out, string(out))
	return nil
}

// SweepCmd purges records older than the retention window, once or on a
// schedule.
type SweepCmd struct {
	DB        string        `required:"" help:"SQLite database to sweep."`
	Retention time.Duration `help:"Records idle for longer are deleted." default:"720h"`
	Schedule  string        `help:"Cron schedule; sweeps once and exits when empty."`
}

func (c *SweepCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := store.OpenSQLite(ctx, c.DB, store.WithLogger(g.logger()))
	if err != nil {
		return err
	}
	defer s.Close()

	expression := c.Schedule
	if expression == "" {
		expression = "@daily"
	}
	sweeper, err := store.NewSweeper(s, expression, c.Retention, store.WithSweeperLogger(g.logger()))
	if err != nil {
		return err
	}
	if c.Schedule == "" {
		n, err := sweeper.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "swept %d records\n", n)
		return nil
	}

	sweeper.Start()
	<-ctx.Done()
	sweeper.Stop()
	return nil
}

func (g *Globals) logger() logging.Logger {
	return logging.New(logging.Options{Writer: g.Err, Level: g.LogLevel, JSON: g.LogJSON})
}

func (g *Globals) service(ctx context.Context, dir, db string) (*formflow.Service, func(), error) {
	logger := g.logger()
	opts := []formflow.Option{
		formflow.WithLogger(logger),
		formflow.WithDefaultLocale(g.Locale),
	}

	if g.Locales != "" {
		catalog := i18n.NewCatalog(i18n.WithDefaultLocale(g.Locale), i18n.WithLogger(logger))
		if err := catalog.LoadFS(os.DirFS(g.Locales), "."); err != nil {
			return nil, nil, err
		}
		opts = append(opts, formflow.WithTranslator(catalog))
	}

	closeStore := func() {}
	if db != "" {
		s, err := store.OpenSQLite(ctx, db, store.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		closeStore = func() { _ = s.Close() }
		opts = append(opts, formflow.WithStore(s))
	}

	svc, err := formflow.Load(os.DirFS(dir), opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}
