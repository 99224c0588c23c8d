// Package expr implements visibility.Evaluator on top of expr-lang.
//
// Rules read answers by name (`contact == "email"`), walk nested answers
// with dots (`contact.email != ""`) and may call the helpers answered(path),
// includes(path, value) and value(path) for keys that are not valid
// identifiers such as date parts. The step being submitted is exposed as
// `extras` when the caller supplies it.
package expr

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Evaluator compiles rules once and caches the programs.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

var _ visibility.Evaluator = (*Evaluator)(nil)

// New returns an Evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Compile parses rule and stores the program. Definition loaders call it to
// surface syntax errors before a journey is served.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

// Eval runs rule against ctx. An empty rule holds.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	program, err := e.program(rule)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, environment(ctx))
	if err != nil {
		return false, fmt.Errorf("expr: eval %q for %s: %w", rule, fieldPath, err)
	}
	return truthy(out), nil
}

func (e *Evaluator) program(rule string) (*vm.Program, error) {
	rule = strings.TrimSpace(rule)

	e.mu.RLock()
	program, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(rule, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expr: compile %q: %w", rule, err)
	}

	e.mu.Lock()
	e.programs[rule] = program
	e.mu.Unlock()
	return program, nil
}

func environment(ctx visibility.Context) map[string]any {
	answers := model.AnswerSet(ctx.Values)
	env := unflatten(ctx.Values)
	env["extras"] = unflatten(ctx.Extras)

	env["value"] = func(path string) any {
		v, _ := answers.Lookup(path)
		return v
	}
	env["answered"] = func(path string) bool {
		v, ok := answers.Lookup(path)
		return ok && !values.IsEmpty(v)
	}
	env["includes"] = func(path, option string) bool {
		v, _ := answers.Lookup(path)
		return slices.Contains(values.NormalizeCheckbox(v), option)
	}
	return env
}

// unflatten turns dotted keys into nested maps so `a.b` resolves through
// member access. Plain keys win over nested ones: a radio answered "email"
// stays comparable as a string while its sub-field stays reachable through
// value("contact.email").
func unflatten(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	var dotted []string
	for key, v := range in {
		if strings.Contains(key, ".") {
			dotted = append(dotted, key)
			continue
		}
		out[key] = v
	}
	slices.Sort(dotted)

	for _, key := range dotted {
		parts := strings.Split(key, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			existing, present := node[part]
			if !present {
				child := map[string]any{}
				node[part] = child
				node = child
				continue
			}
			child, isMap := existing.(map[string]any)
			if !isMap {
				node = nil
				break
			}
			child = maps.Clone(child)
			node[part] = child
			node = child
		}
		if node == nil {
			continue
		}
		if _, present := node[parts[len(parts)-1]]; !present {
			node[parts[len(parts)-1]] = in[key]
		}
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return strings.TrimSpace(t) != "" && !strings.EqualFold(t, "false")
	case int:
		return t != 0
	case float64:
		return t != 0
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
