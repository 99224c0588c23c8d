// Package flow routes a journey between steps. A Graph is built once from
// the step order and per-step configuration and is read-only afterwards.
package flow

import (
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

// CaseReferencePlaceholder is substituted in base paths by StepURL.
const CaseReferencePlaceholder = ":caseReference"

// ErrInvalidGraph reports a step configuration referencing unknown steps.
var ErrInvalidGraph = errors.New("invalid step graph", errors.CategoryBadInput).
	WithTextCode("FLOW_INVALID_GRAPH")

// Condition guards a route using the journey answers and the step just
// submitted.
type Condition func(answers, stepData model.AnswerSet) bool

// Route is a candidate transition. A nil Condition always matches.
type Route struct {
	Next      string
	Condition Condition
	// Rule keeps the declarative source of Condition for diagnostics.
	Rule string
}

// PreviousStep is an explicit back link, literal or computed from answers.
type PreviousStep = model.Dynamic[string, model.AnswerSet]

// StepConfig describes how a step connects to the rest of the journey.
type StepConfig struct {
	Routes       []Route
	DefaultNext  string
	Previous     PreviousStep
	Dependencies []string
}

// Graph is the immutable step graph.
type Graph struct {
	order  []string
	index  map[string]int
	steps  map[string]StepConfig
	scan   []string
	logger logging.Logger
}

// GraphOption customises a Graph.
type GraphOption func(*Graph)

// WithLogger reports panicking conditions.
func WithLogger(logger logging.Logger) GraphOption {
	return func(g *Graph) { g.logger = logging.Normalize(logger) }
}

// NewGraph validates and freezes the step graph.
func NewGraph(order []string, steps map[string]StepConfig, opts ...GraphOption) (*Graph, error) {
	g := &Graph{
		order:  slices.Clone(order),
		index:  make(map[string]int, len(order)),
		steps:  make(map[string]StepConfig, len(steps)),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	for i, name := range g.order {
		if strings.TrimSpace(name) == "" {
			return nil, invalid("step order contains an empty name", map[string]any{"index": i})
		}
		if _, dup := g.index[name]; dup {
			return nil, invalid("step listed twice in order", map[string]any{"step": name})
		}
		g.index[name] = i
	}

	known := func(name string) bool {
		if _, ok := g.index[name]; ok {
			return true
		}
		_, ok := steps[name]
		return ok
	}
	for name, cfg := range steps {
		cfg.Routes = slices.Clone(cfg.Routes)
		cfg.Dependencies = slices.Clone(cfg.Dependencies)
		for _, route := range cfg.Routes {
			if !known(route.Next) {
				return nil, invalid("route targets unknown step", map[string]any{"step": name, "next": route.Next})
			}
		}
		if cfg.DefaultNext != "" && !known(cfg.DefaultNext) {
			return nil, invalid("default next is unknown", map[string]any{"step": name, "next": cfg.DefaultNext})
		}
		if !cfg.Previous.IsComputed() {
			if prev := cfg.Previous.LiteralValue(); prev != "" && !known(prev) {
				return nil, invalid("previous step is unknown", map[string]any{"step": name, "previous": prev})
			}
		}
		g.steps[name] = cfg
	}

	g.scan = slices.Clone(g.order)
	for _, name := range slices.Sorted(maps.Keys(g.steps)) {
		if _, inOrder := g.index[name]; !inOrder {
			g.scan = append(g.scan, name)
		}
	}
	return g, nil
}

func invalid(msg string, meta map[string]any) error {
	meta["reason"] = msg
	return ErrInvalidGraph.Clone().WithMetadata(meta)
}

// Order returns a copy of the step order.
func (g *Graph) Order() []string { return slices.Clone(g.order) }

// Has reports whether step is part of the graph.
func (g *Graph) Has(step string) bool {
	if _, ok := g.index[step]; ok {
		return true
	}
	_, ok := g.steps[step]
	return ok
}

// Step returns the configuration of step.
func (g *Graph) Step(step string) (StepConfig, bool) {
	cfg, ok := g.steps[step]
	return cfg, ok
}

// First returns the first step in order.
func (g *Graph) First() (string, bool) {
	if len(g.order) == 0 {
		return "", false
	}
	return g.order[0], true
}

// Next resolves the step after step: the first matching route, then
// DefaultNext, then the following step in order. It returns false at the end
// of the journey.
func (g *Graph) Next(step string, answers, stepData model.AnswerSet) (string, bool) {
	cfg := g.steps[step]
	for _, route := range cfg.Routes {
		if g.matches(step, route, answers, stepData) {
			return route.Next, true
		}
	}
	if cfg.DefaultNext != "" {
		return cfg.DefaultNext, true
	}
	if i, ok := g.index[step]; ok && i+1 < len(g.order) {
		return g.order[i+1], true
	}
	return "", false
}

// Previous resolves the back link for step. Without an explicit previous
// step every route table is searched for an edge into step that currently
// holds, so the answer depends on the user's path.
func (g *Graph) Previous(step string, answers model.AnswerSet) (string, bool) {
	cfg := g.steps[step]
	if cfg.Previous.IsComputed() || cfg.Previous.LiteralValue() != "" {
		prev, err := cfg.Previous.Resolve(answers)
		if err != nil {
			g.conditionFailed(step, "previous", err)
		} else if prev != "" {
			return prev, true
		}
	}

	for _, from := range g.scan {
		if from == step {
			continue
		}
		candidate := g.steps[from]
		for _, route := range candidate.Routes {
			if route.Next == step && g.matches(from, route, answers, answers) {
				return from, true
			}
		}
		if candidate.DefaultNext == step {
			return from, true
		}
	}

	if i, ok := g.index[step]; ok && i > 0 {
		return g.order[i-1], true
	}
	return "", false
}

// CheckDependencies returns the first dependency of step without an answer.
func (g *Graph) CheckDependencies(step string, answers model.AnswerSet) (string, bool) {
	for _, dep := range g.steps[step].Dependencies {
		v, ok := answers.Lookup(dep)
		if !ok || values.IsEmpty(v) {
			return dep, true
		}
	}
	return "", false
}

// IsTerminal reports whether step ends the journey: last in order and
// without routes or a default next.
func (g *Graph) IsTerminal(step string) bool {
	cfg := g.steps[step]
	if len(cfg.Routes) > 0 || cfg.DefaultNext != "" {
		return false
	}
	i, ok := g.index[step]
	return ok && i == len(g.order)-1
}

func (g *Graph) matches(step string, route Route, answers, stepData model.AnswerSet) bool {
	if route.Condition == nil {
		return true
	}
	ok, err := model.SafeCall(func() bool { return route.Condition(answers, stepData) })
	if err != nil {
		g.conditionFailed(step, route.Next, err)
		return false
	}
	return ok
}

func (g *Graph) conditionFailed(step, target string, err error) {
	logging.WithFields(g.logger, map[string]any{
		"step":   step,
		"target": target,
	}).Error("flow: condition on %s -> %s failed: %v", step, target, err)
}

// StepURL joins basePath and step. A :caseReference segment is replaced by
// the escaped caseRef, or dropped when there is no case.
func StepURL(basePath, step, caseRef string) string {
	segments := strings.Split(strings.Trim(basePath, "/"), "/")
	out := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		switch {
		case seg == "":
		case seg == CaseReferencePlaceholder:
			if caseRef != "" {
				out = append(out, url.PathEscape(caseRef))
			}
		default:
			out = append(out, seg)
		}
	}
	if step != "" {
		out = append(out, url.PathEscape(step))
	}
	return "/" + strings.Join(out, "/")
}
