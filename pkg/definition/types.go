package definition

import (
	"maps"
	"slices"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Set holds every loaded journey keyed by slug. It is safe for concurrent
// readers once LoadFS returns.
type Set struct {
	journeys map[string]*Journey
}

// Journey is a fully built, immutable journey definition.
type Journey struct {
	Slug            string
	Title           string
	BasePath        string
	ReferencePrefix string
	Order           []string
	Steps           map[string]Step
	Graph           *flow.Graph
	Source          string
}

// Step is one page of a journey.
type Step struct {
	Name     string
	Title    string
	TitleKey string
	Fields   []model.Field
}

// Journey returns the journey registered under slug.
func (s *Set) Journey(slug string) (*Journey, bool) {
	if s == nil {
		return nil, false
	}
	j, ok := s.journeys[slug]
	return j, ok
}

// Slugs lists journeys in lexical order.
func (s *Set) Slugs() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.journeys))
}

// Empty reports whether the set holds any journey.
func (s *Set) Empty() bool {
	return s == nil || len(s.journeys) == 0
}

// ReferencePrefixes maps journey slugs to their case reference prefix.
func (s *Set) ReferencePrefixes() map[string]string {
	out := map[string]string{}
	if s == nil {
		return out
	}
	for slug, j := range s.journeys {
		if j.ReferencePrefix != "" {
			out[slug] = j.ReferencePrefix
		}
	}
	return out
}

// Step returns the named step.
func (j *Journey) Step(name string) (Step, bool) {
	st, ok := j.Steps[name]
	return st, ok
}

// documentFile is the on-disk shape. A file holds either a list of journeys
// or a single journey at the top level.
type documentFile struct {
	Journeys    []journeyFile `json:"journeys" yaml:"journeys"`
	journeyFile `yaml:",inline"`
}

type journeyFile struct {
	Slug            string              `json:"slug" yaml:"slug"`
	Title           string              `json:"title" yaml:"title"`
	BasePath        string              `json:"basePath" yaml:"basePath"`
	ReferencePrefix string              `json:"referencePrefix" yaml:"referencePrefix"`
	Order           []string            `json:"order" yaml:"order"`
	Steps           map[string]stepFile `json:"steps" yaml:"steps"`
}

type stepFile struct {
	Title        string             `json:"title" yaml:"title"`
	TitleKey     string             `json:"titleKey" yaml:"titleKey"`
	Fields       []fieldFile        `json:"fields" yaml:"fields"`
	Routes       []routeFile        `json:"routes" yaml:"routes"`
	DefaultNext  string             `json:"defaultNext" yaml:"defaultNext"`
	Previous     string             `json:"previous" yaml:"previous"`
	PreviousWhen []previousWhenFile `json:"previousWhen" yaml:"previousWhen"`
	Dependencies []string           `json:"dependencies" yaml:"dependencies"`
}

type routeFile struct {
	Next string `json:"next" yaml:"next"`
	When string `json:"when" yaml:"when"`
}

type previousWhenFile struct {
	When string `json:"when" yaml:"when"`
	Step string `json:"step" yaml:"step"`
}

type fieldFile struct {
	Name             string            `json:"name" yaml:"name"`
	Kind             string            `json:"kind" yaml:"kind"`
	Required         bool              `json:"required" yaml:"required"`
	RequiredWhen     string            `json:"requiredWhen" yaml:"requiredWhen"`
	Pattern          string            `json:"pattern" yaml:"pattern"`
	MaxLength        int               `json:"maxLength" yaml:"maxLength"`
	NoFutureDate     bool              `json:"noFutureDate" yaml:"noFutureDate"`
	Label            string            `json:"label" yaml:"label"`
	LabelKey         string            `json:"labelKey" yaml:"labelKey"`
	Hint             string            `json:"hint" yaml:"hint"`
	HintKey          string            `json:"hintKey" yaml:"hintKey"`
	Classes          string            `json:"classes" yaml:"classes"`
	Attributes       map[string]string `json:"attributes" yaml:"attributes"`
	ErrorMessage     string            `json:"errorMessage" yaml:"errorMessage"`
	PatternMessage   string            `json:"patternMessage" yaml:"patternMessage"`
	MaxLengthMessage string            `json:"maxLengthMessage" yaml:"maxLengthMessage"`
	Options          []optionFile      `json:"options" yaml:"options"`
}

type optionFile struct {
	Value   string      `json:"value" yaml:"value"`
	Text    string      `json:"text" yaml:"text"`
	TextKey string      `json:"textKey" yaml:"textKey"`
	Fields  []fieldFile `json:"fields" yaml:"fields"`
}
