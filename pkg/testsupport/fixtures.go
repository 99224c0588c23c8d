package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/i18n"
)

// LoadJourney loads every definition below dir and returns the journey
// registered under slug. Testing helpers fail the test on error to keep
// setup concise.
func LoadJourney(t *testing.T, dir, slug string) *definition.Journey {
	t.Helper()

	j, err := LoadJourneyFromDir(dir, slug)
	if err != nil {
		t.Fatalf("load journey: %v", err)
	}
	return j
}

// LoadJourneyFromDir returns a journey without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadJourneyFromDir(dir, slug string) (*definition.Journey, error) {
	if dir == "" {
		return nil, errors.New("testsupport: definition dir is required")
	}
	set, err := definition.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("testsupport: load definitions: %w", err)
	}
	j, ok := set.Journey(slug)
	if !ok {
		return nil, fmt.Errorf("testsupport: journey %q not found in %s", slug, dir)
	}
	return j, nil
}

// NewCatalog builds a production catalog from nested messages keyed by
// locale, with "en" as the default locale.
func NewCatalog(t *testing.T, messages map[string]map[string]any) *i18n.Catalog {
	t.Helper()

	catalog := i18n.NewCatalog(i18n.WithDefaultLocale("en"), i18n.WithProduction(true))
	for locale, msgs := range messages {
		catalog.Add(locale, msgs)
	}
	return catalog
}

// FixedClock returns a clock frozen at the given date (midnight UTC).
func FixedClock(year int, month time.Month, day int) func() time.Time {
	at := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, append(payload, '\n'))
}

// AssertJSONGolden compares value with the JSON golden at path. Both sides
// are decoded into generic values first so key order and whitespace do not
// matter.
func AssertJSONGolden(t *testing.T, path string, value any) {
	t.Helper()

	WriteGolden(t, path, value)

	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	var got, want any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
	if diff := CompareGolden(want, got); diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", path, diff)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
