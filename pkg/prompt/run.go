package prompt

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/journey"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Run walks the journey from step (the first step when blank) until a
// terminal step is submitted. Rejected submissions are asked again with the
// errors shown and the rejected answers as defaults.
func Run(ctx context.Context, e *journey.Engine, d Driver, caseRef, step, locale string) (store.Record, error) {
	if step == "" {
		first, ok := e.Journey().Graph.First()
		if !ok {
			return store.Record{}, fmt.Errorf("prompt: journey %s has no steps", e.Journey().Slug)
		}
		step = first
	}
	loc := e.Localizer(locale)

	for {
		page, err := e.Page(ctx, caseRef, step, locale)
		if err != nil {
			return store.Record{}, err
		}
		st, _ := e.Journey().Step(step)
		if err := d.Info(ctx, "== "+page.Title+" =="); err != nil {
			return store.Record{}, err
		}

		vals := page.Values
		var errs validation.ErrorMap
		for {
			body, err := AskStep(ctx, d, st.Fields, vals, errs, loc)
			if err != nil {
				return store.Record{}, err
			}
			if e.Journey().Graph.IsTerminal(step) {
				ok, err := confirmSubmit(ctx, d, loc)
				if err != nil {
					return store.Record{}, err
				}
				if !ok {
					return store.Record{}, ErrAborted
				}
			}
			res, err := e.Submit(ctx, journey.Submission{
				CaseRef: caseRef,
				Step:    step,
				Locale:  locale,
				Body:    body,
				Version: page.Version,
			})
			if err != nil {
				return res.Record, err
			}
			if res.Failed() {
				for _, msg := range res.FormErrors {
					if err := d.Info(ctx, "! "+msg); err != nil {
						return res.Record, err
					}
				}
				vals, errs = body, res.Errors
				continue
			}
			if res.Complete {
				return res.Record, nil
			}
			step = res.NextStep
			break
		}
	}
}

func confirmSubmit(ctx context.Context, d Driver, loc i18n.Localizer) (bool, error) {
	msg := "Submit your answers?"
	if text, ok := loc.Text("prompt.confirmSubmit"); ok {
		msg = text
	}
	return d.Confirm(ctx, ConfirmConfig{Message: msg, Default: true})
}
