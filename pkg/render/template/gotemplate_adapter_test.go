package template_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

//go:embed testdata/templates/*.tmpl
var embeddedTemplates embed.FS

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()

	sub, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(sub)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplateWritesOutput(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	if result != "Hello Ada!" {
		t.Fatalf("result = %q", result)
	}
	if written != result {
		t.Fatalf("writer = %q, want %q", written, result)
	}
}

func TestEngine_AcceptsNameWithExtension(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("hello.tmpl", map[string]any{"name": "Grace"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Grace!" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))

	got, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "staging" {
		t.Fatalf("got %q", got)
	}

	if err := engine.GlobalContext(map[string]any{"settings": map[string]any{"env": "live"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	got, err = engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "live" {
		t.Fatalf("got %q after update", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("register filter: %v", err)
	}

	got, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("got %q", got)
	}

	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return "", nil }); err == nil {
		t.Fatalf("expected duplicate filter registration to fail")
	}
}

func TestEngine_EscapesByDefault(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("escape", map[string]any{"label": "<b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "&lt;b&gt;|<b>" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_HTMLAttrsFilterSortsAndEscapes(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("attrs", map[string]any{
		"attrs": map[string]string{"data-x": "1", "aria-label": `a"b`},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := `<input aria-label="a&#34;b" data-x="1">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got, err = engine.RenderTemplate("attrs", map[string]any{})
	if err != nil {
		t.Fatalf("render without attrs: %v", err)
	}
	if got != "<input>" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RenderStringAndStructData(t *testing.T) {
	engine := newEngine(t)

	type view struct {
		Title string `json:"title"`
	}
	got, err := engine.Render("<h1>{{ title }}</h1>", view{Title: "Contact"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "<h1>Contact</h1>" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_HasTemplate(t *testing.T) {
	engine := newEngine(t)

	if !engine.HasTemplate("hello") {
		t.Fatalf("expected hello to exist")
	}
	if engine.HasTemplate("missing") {
		t.Fatalf("expected missing template to be reported absent")
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}
