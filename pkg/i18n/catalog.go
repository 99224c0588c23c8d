package i18n

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/internal/logging"
)

// Catalog stores nested messages per locale and implements Translator,
// ObjectTranslator and Flattener.
type Catalog struct {
	mu            sync.RWMutex
	flat          map[string]map[string]string
	defaultLocale string
	production    bool
	logger        logging.Logger
}

// CatalogOption customises a Catalog.
type CatalogOption func(*Catalog)

// WithDefaultLocale sets the locale consulted when a key is missing from the
// requested one.
func WithDefaultLocale(locale string) CatalogOption {
	return func(c *Catalog) { c.defaultLocale = strings.TrimSpace(locale) }
}

// WithProduction silences missing-key logging.
func WithProduction(production bool) CatalogOption {
	return func(c *Catalog) { c.production = production }
}

// WithLogger sets the logger used for missing-key reports.
func WithLogger(logger logging.Logger) CatalogOption {
	return func(c *Catalog) { c.logger = logging.Normalize(logger) }
}

// NewCatalog returns an empty catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		flat:          make(map[string]map[string]string),
		defaultLocale: "en",
		logger:        logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Add merges a nested message tree into locale. Later additions override
// earlier keys.
func (c *Catalog) Add(locale string, messages map[string]any) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dst := c.flat[locale]
	if dst == nil {
		dst = make(map[string]string)
		c.flat[locale] = dst
	}
	flattenInto(dst, "", messages)
}

// Locales lists the loaded locales in sorted order.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.flat))
}

// LoadFS reads message files below root. Both `<locale>/<any>.yaml` and
// `<locale>.yaml` layouts are accepted, as are .yml and .json files.
func (c *Catalog) LoadFS(fsys fs.FS, root string) error {
	if fsys == nil {
		return errors.New("i18n: nil filesystem", errors.CategoryBadInput)
	}
	root = path.Clean(strings.TrimSpace(root))
	if root == "" {
		root = "."
	}

	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}

		locale := localeFor(root, p)
		if locale == "" {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return errors.Wrap(err, errors.CategoryExternal, "i18n: read catalog file").
				WithMetadata(map[string]any{"path": p})
		}

		messages := map[string]any{}
		if ext == ".json" {
			err = json.Unmarshal(raw, &messages)
		} else {
			err = yaml.Unmarshal(raw, &messages)
		}
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "i18n: decode catalog file").
				WithMetadata(map[string]any{"path": p})
		}
		c.Add(locale, messages)
		return nil
	})
}

func localeFor(root, p string) string {
	rel := strings.TrimPrefix(p, root)
	rel = strings.TrimPrefix(rel, "/")
	if dir, _, found := strings.Cut(rel, "/"); found {
		return dir
	}
	return strings.TrimSuffix(rel, path.Ext(rel))
}

func flattenInto(dst map[string]string, prefix string, node any) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			flattenInto(dst, joinKey(prefix, key), child)
		}
	case map[any]any:
		for key, child := range v {
			flattenInto(dst, joinKey(prefix, fmt.Sprint(key)), child)
		}
	case map[string]string:
		for key, child := range v {
			dst[joinKey(prefix, key)] = child
		}
	case nil:
	case string:
		dst[prefix] = v
	default:
		dst[prefix] = fmt.Sprint(v)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Translate resolves key for locale, falling back to the default locale.
// A map argument supplies `{{name}}` interpolation values; a numeric `count`
// entry selects `key_one` or `key_other` when those exist.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	params := paramsFrom(args)
	for _, candidate := range pluralKeys(key, params) {
		if msg, ok := c.lookup(locale, candidate); ok {
			return interpolate(msg, params), nil
		}
	}
	c.reportMissing(locale, key)
	return key, missingKey(locale, key)
}

// TranslateObject returns every message stored below key with the prefix
// removed, e.g. {"one": "...", "other": "..."}.
func (c *Catalog) TranslateObject(locale, key string) (map[string]string, error) {
	prefix := strings.TrimSuffix(key, ".") + "."
	for _, loc := range c.chain(locale) {
		out := map[string]string{}
		c.mu.RLock()
		for k, v := range c.flat[loc] {
			if rest, ok := strings.CutPrefix(k, prefix); ok {
				out[rest] = v
			}
		}
		c.mu.RUnlock()
		if len(out) > 0 {
			return out, nil
		}
	}
	c.reportMissing(locale, key)
	return nil, missingKey(locale, key)
}

// Flatten returns a copy of every message for locale layered over the
// default locale.
func (c *Catalog) Flatten(locale string) map[string]string {
	chain := c.chain(locale)
	out := map[string]string{}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, c.flat[chain[i]])
	}
	return out
}

func (c *Catalog) chain(locale string) []string {
	locale = strings.TrimSpace(locale)
	out := make([]string, 0, 3)
	if locale != "" {
		out = append(out, locale)
		if base, _, found := strings.Cut(locale, "-"); found {
			out = append(out, base)
		}
	}
	if c.defaultLocale != "" && !slices.Contains(out, c.defaultLocale) {
		out = append(out, c.defaultLocale)
	}
	return out
}

func (c *Catalog) lookup(locale, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, loc := range c.chain(locale) {
		if msg, ok := c.flat[loc][key]; ok {
			return msg, true
		}
	}
	return "", false
}

func (c *Catalog) reportMissing(locale, key string) {
	if c.production {
		return
	}
	logging.WithFields(c.logger, map[string]any{
		"locale": locale,
		"key":    key,
	}).Warn("i18n: missing translation %s for locale %s", key, locale)
}

func paramsFrom(args []any) map[string]any {
	params := map[string]any{}
	for _, arg := range args {
		switch v := arg.(type) {
		case map[string]any:
			maps.Copy(params, v)
		case map[string]string:
			for k, s := range v {
				params[k] = s
			}
		}
	}
	return params
}

func pluralKeys(key string, params map[string]any) []string {
	count, ok := numeric(params["count"])
	if !ok {
		return []string{key}
	}
	suffix := "_other"
	switch count {
	case 0:
		return []string{key + "_zero", key + suffix, key}
	case 1:
		suffix = "_one"
	}
	return []string{key + suffix, key}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Interpolate replaces `{{name}}` placeholders with params entries. Unknown
// placeholders are left untouched.
func Interpolate(msg string, params map[string]any) string {
	return interpolate(msg, params)
}

func interpolate(msg string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	return placeholder.ReplaceAllStringFunc(msg, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if v, ok := params[name]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}
