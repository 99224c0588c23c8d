// Package formflow serves multi-step form journeys loaded from declarative
// definitions. It wires the definition loader, component builder, record
// store and journey engines behind a single Service.
package formflow

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-errors"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/journey"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/store"
)

// ErrUnknownJourney is returned for slugs the loaded set does not define.
var ErrUnknownJourney = errors.New("formflow: unknown journey", errors.CategoryNotFound).
	WithTextCode("FORMFLOW_UNKNOWN_JOURNEY")

// Engine aliases the per-journey engine.
type Engine = journey.Engine

// Submission aliases journey.Submission for callers of the root package.
type Submission = journey.Submission

// Result aliases journey.Result.
type Result = journey.Result

// Option customises a Service.
type Option func(*config)

type config struct {
	store         store.Store
	translator    i18n.Translator
	defaultLocale string
	logger        logging.Logger
	builderOpts   []render.Option
	engineOpts    []journey.Option
	selector      theme.ThemeSelector
	themeName     string
	themeVariant  string
	fallbacks     map[string]string
}

// WithStore shares one record store across every journey.
func WithStore(s store.Store) Option {
	return func(c *config) { c.store = s }
}

// WithTranslator sets the translator for labels and messages.
func WithTranslator(t i18n.Translator) Option {
	return func(c *config) { c.translator = t }
}

// WithDefaultLocale is used for requests without a locale.
func WithDefaultLocale(locale string) Option {
	return func(c *config) { c.defaultLocale = locale }
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger logging.Logger) Option {
	return func(c *config) { c.logger = logging.Normalize(logger) }
}

// WithBuilderOptions forwards options to the shared component builder.
func WithBuilderOptions(opts ...render.Option) Option {
	return func(c *config) { c.builderOpts = append(c.builderOpts, opts...) }
}

// WithEngineOptions forwards options to every journey engine.
func WithEngineOptions(opts ...journey.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithThemeSelector resolves name and variant through selector once at
// construction so components render with the theme's partials and tokens.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(c *config) {
		c.selector = selector
		c.themeName = name
		c.themeVariant = variant
	}
}

// WithThemeFallbacks fills partials the selected theme leaves unset.
// Defaults to the bundled templates.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(c *config) { c.fallbacks = fallbacks }
}

// Service holds one engine per journey.
type Service struct {
	set     *definition.Set
	engines map[string]*journey.Engine
	store   store.Store
	logger  logging.Logger
}

// Load reads every definition under fsys and builds a Service over it.
func Load(fsys fs.FS, opts ...Option) (*Service, error) {
	cfg := buildConfig(opts)
	set, err := definition.LoadFS(fsys, definition.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	return newService(set, cfg)
}

// New builds a Service over an already loaded set.
func New(set *definition.Set, opts ...Option) (*Service, error) {
	return newService(set, buildConfig(opts))
}

func buildConfig(opts []Option) config {
	cfg := config{logger: logging.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.store == nil {
		cfg.store = store.NewMemoryStore(store.WithLogger(cfg.logger))
	}
	if cfg.fallbacks == nil {
		cfg.fallbacks = render.DefaultPartials()
	}
	return cfg
}

func newService(set *definition.Set, cfg config) (*Service, error) {
	if set.Empty() {
		return nil, fmt.Errorf("formflow: no journeys defined")
	}

	builderOpts := append([]render.Option{render.WithLogger(cfg.logger)}, cfg.builderOpts...)
	if cfg.selector != nil {
		themeCfg, err := render.SelectTheme(cfg.selector, cfg.themeName, cfg.themeVariant, cfg.fallbacks)
		if err != nil {
			return nil, fmt.Errorf("formflow: select theme %q: %w", cfg.themeName, err)
		}
		builderOpts = append(builderOpts, render.WithTheme(themeCfg))
	}
	builder, err := render.NewBuilder(builderOpts...)
	if err != nil {
		return nil, err
	}

	refs := store.NewReferences(set.ReferencePrefixes(), store.DefaultReferencePrefix)
	s := &Service{
		set:     set,
		engines: make(map[string]*journey.Engine),
		store:   cfg.store,
		logger:  cfg.logger,
	}
	for _, slug := range set.Slugs() {
		j, _ := set.Journey(slug)
		opts := append([]journey.Option{
			journey.WithStore(cfg.store),
			journey.WithTranslator(cfg.translator),
			journey.WithDefaultLocale(cfg.defaultLocale),
			journey.WithLogger(cfg.logger),
			journey.WithBuilder(builder),
			journey.WithReferences(refs),
		}, cfg.engineOpts...)
		engine, err := journey.New(j, opts...)
		if err != nil {
			return nil, fmt.Errorf("formflow: journey %q: %w", slug, err)
		}
		s.engines[slug] = engine
	}
	return s, nil
}

// Slugs lists the served journeys in lexical order.
func (s *Service) Slugs() []string { return s.set.Slugs() }

// Store returns the shared record store.
func (s *Service) Store() store.Store { return s.store }

// Engine returns the engine serving slug.
func (s *Service) Engine(slug string) (*journey.Engine, error) {
	engine, ok := s.engines[slug]
	if !ok {
		return nil, ErrUnknownJourney.Clone().WithMetadata(map[string]any{"journey": slug})
	}
	return engine, nil
}

// Start allocates a case reference on slug and returns it with the URL of
// the first step.
func (s *Service) Start(ctx context.Context, slug string) (string, string, error) {
	engine, err := s.Engine(slug)
	if err != nil {
		return "", "", err
	}
	return engine.Start(ctx)
}

// EmbeddedTemplates exposes the bundled component templates so callers can
// copy or extend them.
func EmbeddedTemplates() fs.FS {
	return render.TemplatesFS()
}
