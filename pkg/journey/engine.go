package journey

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

var (
	// ErrNavigationDeadEnd is returned when a non-terminal step has no next
	// step for the current answers.
	ErrNavigationDeadEnd = errors.New("journey: no next step", errors.CategoryHandler).
				WithTextCode("JOURNEY_DEAD_END")
	// ErrUnknownStep is returned for steps the journey does not define.
	ErrUnknownStep = errors.New("journey: unknown step", errors.CategoryNotFound).
			WithTextCode("JOURNEY_UNKNOWN_STEP")
)

// ErrorCode returns the text code of a go-errors error in err's chain.
func ErrorCode(err error) string {
	var ge *errors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// IsDeadEnd reports whether err is a navigation dead end.
func IsDeadEnd(err error) bool {
	return ErrorCode(err) == ErrNavigationDeadEnd.TextCode
}

// Engine serves one journey.
type Engine struct {
	journey        *definition.Journey
	store          store.Store
	translator     i18n.Translator
	defaultLocale  string
	logger         logging.Logger
	builder        *render.Builder
	refs           *store.References
	now            func() time.Time
	validationOpts []validation.Option
	checks         []CheckFunc
}

// New returns an Engine for j.
func New(j *definition.Journey, opts ...Option) (*Engine, error) {
	if j == nil || j.Graph == nil {
		return nil, fmt.Errorf("journey: definition is required")
	}
	e := &Engine{
		journey: j,
		logger:  logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.store == nil {
		e.store = store.NewMemoryStore()
	}
	if e.refs == nil {
		e.refs = store.NewReferences(nil, j.ReferencePrefix)
	}
	if e.builder == nil {
		b, err := render.NewBuilder(render.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("journey: %w", err)
		}
		e.builder = b
	}
	return e, nil
}

// Journey returns the definition served by the engine.
func (e *Engine) Journey() *definition.Journey { return e.journey }

// Page is a step prepared for display.
type Page struct {
	Step       string                  `json:"step"`
	Title      string                  `json:"title"`
	CaseRef    string                  `json:"caseRef"`
	Action     string                  `json:"action"`
	BackURL    string                  `json:"backUrl,omitempty"`
	Components []render.FieldComponent `json:"components"`
	// Values are the answers the components were built from: the saved
	// step on display, the submitted body after a failed submission.
	Values     model.AnswerSet      `json:"values"`
	Errors     validation.ErrorMap  `json:"errors,omitempty"`
	Summary    *render.ErrorSummary `json:"summary,omitempty"`
	FormErrors []string             `json:"formErrors,omitempty"`
	Version    int                  `json:"version"`
	Locale     string               `json:"locale"`
}

// Submission is one posted step.
type Submission struct {
	CaseRef string
	Step    string
	Locale  string
	// Body holds raw form values keyed by input name. Date inputs arrive as
	// "<path>-day", "<path>-month" and "<path>-year".
	Body model.AnswerSet
	// Version is the record version the page was rendered from.
	Version int
}

// Result is the outcome of Submit.
type Result struct {
	// Errors is non-empty when the submission was rejected and nothing was
	// saved.
	Errors     validation.ErrorMap     `json:"errors,omitempty"`
	Summary    *render.ErrorSummary    `json:"summary,omitempty"`
	Components []render.FieldComponent `json:"components,omitempty"`
	FormErrors []string                `json:"formErrors,omitempty"`
	// Page is the step to redisplay after a rejected submission.
	Page *Page `json:"page,omitempty"`

	NextStep string       `json:"nextStep,omitempty"`
	NextURL  string       `json:"nextUrl,omitempty"`
	Complete bool         `json:"complete"`
	Record   store.Record `json:"record"`
}

// Failed reports whether the submission was rejected.
func (r Result) Failed() bool {
	return len(r.Errors) > 0 || len(r.FormErrors) > 0
}

// Start allocates a case reference and returns it with the URL of the first
// step.
func (e *Engine) Start(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	first, ok := e.journey.Graph.First()
	if !ok {
		return "", "", fmt.Errorf("journey: %s has no steps", e.journey.Slug)
	}
	ref := e.refs.Generate(e.journey.Slug, "")
	e.log(ref, first).Info("journey: started case %s", ref)
	return ref, e.URL(first, ref), nil
}

// URL returns the address of step for caseRef.
func (e *Engine) URL(step, caseRef string) string {
	return flow.StepURL(e.journey.BasePath, step, caseRef)
}

// Page loads the case and builds step with the saved answers.
func (e *Engine) Page(ctx context.Context, caseRef, step, locale string) (*Page, error) {
	st, err := e.step(step)
	if err != nil {
		return nil, err
	}
	rec, err := e.store.Load(ctx, caseRef)
	if err != nil {
		return nil, fmt.Errorf("journey: load %s: %w", caseRef, err)
	}

	saved := stepAnswers(rec.Data, step)
	return e.page(st, caseRef, locale, saved, flatten(e.journey, rec.Data), nil, nil, rec.Version)
}

// Render renders p as a full HTML page. The record version travels as a
// hidden input; extra hidden fields such as CSRF tokens are appended.
func (e *Engine) Render(p *Page, hidden ...render.HiddenField) (string, error) {
	if p == nil {
		return "", fmt.Errorf("journey: page is required")
	}
	st, err := e.step(p.Step)
	if err != nil {
		return "", err
	}
	fields := append([]render.HiddenField{render.VersionField(p.Version)}, hidden...)
	return e.builder.RenderPage(st.Fields, p.Values, p.Errors, e.Localizer(p.Locale), render.PageOptions{
		Title:        p.Title,
		Action:       p.Action,
		BackURL:      p.BackURL,
		HiddenFields: fields,
		Summary:      p.Summary,
		FormErrors:   p.FormErrors,
	})
}

// Submit validates and persists a step. A rejected submission is reported
// through Result.Errors and leaves the record untouched. Store failures and
// navigation dead ends are returned as errors.
func (e *Engine) Submit(ctx context.Context, sub Submission) (Result, error) {
	st, err := e.step(sub.Step)
	if err != nil {
		return Result{}, err
	}
	rec, err := e.store.Load(ctx, sub.CaseRef)
	if err != nil {
		return Result{}, fmt.Errorf("journey: load %s: %w", sub.CaseRef, err)
	}

	body := sub.Body
	if body == nil {
		body = model.AnswerSet{}
	}
	loc := e.Localizer(sub.Locale)
	// The submission owns every path of its step: saved values for those
	// paths are dropped so cleared answers stay cleared.
	paths := model.Paths(st.Fields)
	persisted := flatten(e.journey, rec.Data)
	for _, path := range paths {
		delete(persisted, path)
	}
	live := visibility.LiveAnswers(st.Fields, body, persisted)
	all := persisted.Merge(live)

	opts := append([]validation.Option{validation.WithLogger(e.logger), validation.WithClock(e.now)}, e.validationOpts...)
	errs := validation.ValidateForm(st.Fields, body, all, loc, opts...)

	var formErrors []string
	if len(errs) == 0 {
		for _, check := range e.checks {
			payload, err := check(ctx, sub, all)
			if err != nil {
				return Result{}, fmt.Errorf("journey: check %s: %w", sub.Step, err)
			}
			mapped := render.MapErrorPayload(st.Fields, payload)
			for path, fe := range mapped.ErrorMap() {
				if _, exists := errs[path]; !exists {
					errs[path] = fe
				}
			}
			formErrors = render.MergeFormErrors(formErrors, mapped.Form...)
		}
	}

	if len(errs) > 0 || len(formErrors) > 0 {
		page, err := e.page(st, sub.CaseRef, sub.Locale, body, all, errs, formErrors, rec.Version)
		if err != nil {
			return Result{}, err
		}
		e.log(sub.CaseRef, sub.Step).Debug("journey: %d field errors on %s", len(errs), sub.Step)
		return Result{
			Errors:     errs,
			Summary:    page.Summary,
			Components: page.Components,
			FormErrors: formErrors,
			Page:       page,
			Record:     rec,
		}, nil
	}

	// Saved answers the step no longer carries are cleared explicitly; the
	// store merges into the existing step object.
	patch := storable(live)
	prior := stepAnswers(rec.Data, sub.Step)
	for _, path := range paths {
		if _, kept := patch[path]; kept {
			continue
		}
		if _, had := prior[path]; had {
			patch[path] = nil
		}
	}
	saved, err := e.store.Save(ctx, sub.CaseRef, sub.Version, map[string]any{sub.Step: patch})
	if err != nil {
		return Result{}, fmt.Errorf("journey: save %s: %w", sub.CaseRef, err)
	}
	e.log(sub.CaseRef, sub.Step).Info("journey: saved %s at version %d", sub.Step, saved.Version)

	res := Result{Record: saved}
	next, ok := e.journey.Graph.Next(sub.Step, flatten(e.journey, saved.Data), live)
	if !ok {
		if e.journey.Graph.IsTerminal(sub.Step) {
			res.Complete = true
			return res, nil
		}
		return res, ErrNavigationDeadEnd.Clone().WithMetadata(map[string]any{
			"journey":   e.journey.Slug,
			"step":      sub.Step,
			"reference": sub.CaseRef,
		})
	}
	res.NextStep = next
	res.NextURL = e.URL(next, sub.CaseRef)
	return res, nil
}

// Guard returns the URL of the step owning the first unanswered dependency
// of step, or "" when step may be shown.
func (e *Engine) Guard(ctx context.Context, caseRef, step string) (string, error) {
	if _, err := e.step(step); err != nil {
		return "", err
	}
	rec, err := e.store.Load(ctx, caseRef)
	if err != nil {
		return "", fmt.Errorf("journey: load %s: %w", caseRef, err)
	}
	dep, missing := e.journey.Graph.CheckDependencies(step, flatten(e.journey, rec.Data))
	if !missing {
		return "", nil
	}
	owner := e.owner(dep)
	e.log(caseRef, step).Debug("journey: %s requires %s, redirecting to %s", step, dep, owner)
	return e.URL(owner, caseRef), nil
}

// owner finds the step declaring path, falling back to the first step.
func (e *Engine) owner(path string) string {
	for _, name := range stepNames(e.journey) {
		if slices.Contains(model.Paths(e.journey.Steps[name].Fields), path) {
			return name
		}
	}
	first, _ := e.journey.Graph.First()
	return first
}

func (e *Engine) page(st definition.Step, caseRef, locale string, vals, all model.AnswerSet, errs validation.ErrorMap, formErrors []string, version int) (*Page, error) {
	loc := e.Localizer(locale)
	components, err := e.builder.Build(st.Fields, vals, errs, loc)
	if err != nil {
		return nil, fmt.Errorf("journey: build %s: %w", st.Name, err)
	}
	p := &Page{
		Step:       st.Name,
		Title:      e.title(st, loc),
		CaseRef:    caseRef,
		Action:     e.URL(st.Name, caseRef),
		Components: components,
		Values:     vals,
		Errors:     errs,
		Summary:    render.BuildErrorSummary(st.Fields, errs, loc),
		FormErrors: formErrors,
		Version:    version,
		Locale:     loc.Locale(),
	}
	if prev, ok := e.journey.Graph.Previous(st.Name, all); ok {
		p.BackURL = e.URL(prev, caseRef)
	}
	return p, nil
}

func (e *Engine) title(st definition.Step, loc i18n.Localizer) string {
	if msg, ok := loc.Text(st.TitleKey); ok {
		return msg
	}
	if st.Title != "" {
		return st.Title
	}
	return st.Name
}

func (e *Engine) step(name string) (definition.Step, error) {
	st, ok := e.journey.Step(name)
	if !ok {
		return definition.Step{}, ErrUnknownStep.Clone().WithMetadata(map[string]any{
			"journey": e.journey.Slug,
			"step":    name,
		})
	}
	return st, nil
}

// Localizer binds the engine translator to locale, or to the default
// locale when locale is blank.
func (e *Engine) Localizer(locale string) i18n.Localizer {
	if strings.TrimSpace(locale) == "" {
		locale = e.defaultLocale
	}
	return i18n.NewLocalizer(e.translator, locale)
}

func (e *Engine) log(caseRef, step string) logging.Logger {
	return logging.WithFields(e.logger, map[string]any{
		"journey":   e.journey.Slug,
		"reference": caseRef,
		"step":      step,
	})
}

// stepNames lists steps in journey order, then the unordered ones.
func stepNames(j *definition.Journey) []string {
	names := slices.Clone(j.Order)
	for _, name := range slices.Sorted(maps.Keys(j.Steps)) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// flatten merges the saved answers of every step into one set. Later steps
// win on clashing paths.
func flatten(j *definition.Journey, data map[string]any) model.AnswerSet {
	out := model.AnswerSet{}
	for _, name := range stepNames(j) {
		maps.Copy(out, stepAnswers(data, name))
	}
	return out
}

func stepAnswers(data map[string]any, step string) model.AnswerSet {
	switch v := data[step].(type) {
	case map[string]any:
		return model.AnswerSet(v).Clone()
	case model.AnswerSet:
		return v.Clone()
	default:
		return model.AnswerSet{}
	}
}

// storable converts answers into the plain shapes every backend encodes.
func storable(answers model.AnswerSet) map[string]any {
	out := make(map[string]any, len(answers))
	for path, value := range answers {
		switch v := value.(type) {
		case model.DateValue:
			out[path] = v.Map()
		case []string:
			out[path] = slices.Clone(v)
		default:
			out[path] = v
		}
	}
	return out
}
