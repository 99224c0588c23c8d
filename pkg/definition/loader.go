// Package definition loads journey documents (YAML or JSON) into immutable
// field schemas and step graphs.
package definition

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

// Compiler is implemented by evaluators able to check rules ahead of time.
type Compiler interface {
	Compile(rule string) error
}

// Option customises the loader.
type Option func(*loader)

type loader struct {
	eval   visibility.Evaluator
	logger logging.Logger
}

// WithEvaluator replaces the expr-lang rule evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(l *loader) {
		if eval != nil {
			l.eval = eval
		}
	}
}

// WithLogger reports rule evaluation failures at runtime.
func WithLogger(logger logging.Logger) Option {
	return func(l *loader) { l.logger = logging.Normalize(logger) }
}

func newLoader(opts []Option) *loader {
	l := &loader{eval: expr.New(), logger: logging.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// LoadFS walks fsys and builds every journey found. Duplicate slugs and
// malformed documents abort the load.
func LoadFS(fsys fs.FS, opts ...Option) (*Set, error) {
	set := &Set{journeys: make(map[string]*Journey)}
	if fsys == nil {
		return set, nil
	}
	l := newLoader(opts)

	err := walk(fsys, func(path string, doc documentFile) error {
		for _, raw := range journeysOf(doc) {
			j, err := l.build(raw, path)
			if err != nil {
				return err
			}
			if existing, dup := set.journeys[j.Slug]; dup {
				return fmt.Errorf("definition: duplicate journey %q (files %s and %s)", j.Slug, existing.Source, path)
			}
			set.journeys[j.Slug] = j
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Parse builds the journeys of a single document.
func Parse(data []byte, source string, opts ...Option) ([]*Journey, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	l := newLoader(opts)
	var out []*Journey
	for _, raw := range journeysOf(doc) {
		j, err := l.build(raw, source)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func walk(fsys fs.FS, visit func(path string, doc documentFile) error) error {
	return fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		return visit(path, doc)
	})
}

func journeysOf(doc documentFile) []journeyFile {
	out := append([]journeyFile(nil), doc.Journeys...)
	if strings.TrimSpace(doc.Slug) != "" {
		out = append(out, doc.journeyFile)
	}
	return out
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	return doc, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (l *loader) build(raw journeyFile, source string) (*Journey, error) {
	slug := strings.TrimSpace(raw.Slug)
	if slug == "" {
		return nil, fmt.Errorf("definition: file %s defines a journey without slug", source)
	}
	if len(raw.Order) == 0 {
		return nil, fmt.Errorf("definition: journey %q (file %s) has an empty order", slug, source)
	}

	j := &Journey{
		Slug:            slug,
		Title:           strings.TrimSpace(raw.Title),
		BasePath:        strings.TrimSpace(raw.BasePath),
		ReferencePrefix: strings.TrimSpace(raw.ReferencePrefix),
		Order:           append([]string(nil), raw.Order...),
		Steps:           make(map[string]Step, len(raw.Steps)),
		Source:          source,
	}
	if j.BasePath == "" {
		j.BasePath = "/" + slug
	}

	for _, name := range raw.Order {
		if _, ok := raw.Steps[name]; !ok {
			return nil, fmt.Errorf("definition: journey %q (file %s) orders unknown step %q", slug, source, name)
		}
	}

	configs := make(map[string]flow.StepConfig, len(raw.Steps))
	for name, st := range raw.Steps {
		fields, err := l.fields(st.Fields, "")
		if err != nil {
			return nil, fmt.Errorf("definition: journey %q step %q (file %s): %w", slug, name, source, err)
		}
		j.Steps[name] = Step{Name: name, Title: st.Title, TitleKey: st.TitleKey, Fields: fields}

		cfg, err := l.stepConfig(name, st)
		if err != nil {
			return nil, fmt.Errorf("definition: journey %q step %q (file %s): %w", slug, name, source, err)
		}
		configs[name] = cfg
	}

	graph, err := flow.NewGraph(raw.Order, configs, flow.WithLogger(l.logger))
	if err != nil {
		return nil, fmt.Errorf("definition: journey %q (file %s): %w", slug, source, err)
	}
	j.Graph = graph
	return j, nil
}

func (l *loader) fields(raw []fieldFile, parent string) ([]model.Field, error) {
	out := make([]model.Field, 0, len(raw))
	for _, rf := range raw {
		f, err := l.field(rf, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if parent == "" {
		for _, f := range out {
			if err := f.Check(); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (l *loader) field(rf fieldFile, parent string) (model.Field, error) {
	name := strings.TrimSpace(rf.Name)
	path := name
	if parent != "" {
		path = model.NestedFieldName(parent, name)
	}
	kind, err := model.ParseFieldKind(rf.Kind)
	if err != nil {
		return model.Field{}, fmt.Errorf("field %q: %w", path, err)
	}

	f := model.Field{
		Name:             name,
		Kind:             kind,
		Required:         model.Required(rf.Required),
		PatternSource:    rf.Pattern,
		MaxLength:        rf.MaxLength,
		NoFutureDate:     rf.NoFutureDate,
		Label:            rf.Label,
		LabelKey:         rf.LabelKey,
		Hint:             rf.Hint,
		HintKey:          rf.HintKey,
		Classes:          rf.Classes,
		Attributes:       rf.Attributes,
		ErrorMessage:     rf.ErrorMessage,
		PatternMessage:   rf.PatternMessage,
		MaxLengthMessage: rf.MaxLengthMessage,
	}
	if strings.TrimSpace(rf.RequiredWhen) != "" {
		rule := rf.RequiredWhen
		if err := l.compile(rule); err != nil {
			return model.Field{}, fmt.Errorf("field %q requiredWhen: %w", path, err)
		}
		f.Required = model.RequiredWhen(func(scope model.Scope) bool {
			return l.holds(path, rule, scope.All.Merge(scope.Step), scope.Step)
		})
	}
	if rf.Pattern != "" {
		re, err := regexp.Compile(rf.Pattern)
		if err != nil {
			return model.Field{}, fmt.Errorf("field %q pattern: %w", path, err)
		}
		f.Pattern = re
	}

	for _, ro := range rf.Options {
		subs, err := l.fields(ro.Fields, path)
		if err != nil {
			return model.Field{}, err
		}
		f.Options = append(f.Options, model.Option{
			Value:     ro.Value,
			Text:      ro.Text,
			TextKey:   ro.TextKey,
			SubFields: subs,
		})
	}
	return f, nil
}

func (l *loader) stepConfig(name string, st stepFile) (flow.StepConfig, error) {
	cfg := flow.StepConfig{
		DefaultNext:  strings.TrimSpace(st.DefaultNext),
		Dependencies: append([]string(nil), st.Dependencies...),
	}
	for _, rr := range st.Routes {
		route := flow.Route{Next: strings.TrimSpace(rr.Next), Rule: rr.When}
		if strings.TrimSpace(rr.When) != "" {
			rule := rr.When
			if err := l.compile(rule); err != nil {
				return flow.StepConfig{}, fmt.Errorf("route to %q: %w", route.Next, err)
			}
			route.Condition = func(answers, stepData model.AnswerSet) bool {
				return l.holds(name, rule, answers.Merge(stepData), stepData)
			}
		}
		cfg.Routes = append(cfg.Routes, route)
	}

	fallback := strings.TrimSpace(st.Previous)
	if len(st.PreviousWhen) == 0 {
		cfg.Previous = model.Literal[string, model.AnswerSet](fallback)
		return cfg, nil
	}
	cases := append([]previousWhenFile(nil), st.PreviousWhen...)
	for _, c := range cases {
		if err := l.compile(c.When); err != nil {
			return flow.StepConfig{}, fmt.Errorf("previousWhen %q: %w", c.Step, err)
		}
	}
	cfg.Previous = model.Computed[string, model.AnswerSet](func(answers model.AnswerSet) string {
		for _, c := range cases {
			if l.holds(name, c.When, answers, nil) {
				return c.Step
			}
		}
		return fallback
	})
	return cfg, nil
}

func (l *loader) compile(rule string) error {
	if c, ok := l.eval.(Compiler); ok {
		return c.Compile(rule)
	}
	return nil
}

func (l *loader) holds(path, rule string, values, extras model.AnswerSet) bool {
	ok, err := l.eval.Eval(path, rule, visibility.Context{Values: values, Extras: extras})
	if err != nil {
		logging.WithFields(l.logger, map[string]any{"path": path, "rule": rule}).
			Error("definition: rule %q for %s failed: %v", rule, path, err)
		return false
	}
	return ok
}
