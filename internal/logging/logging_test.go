package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/internal/logging"
)

func TestNew_WritesStructuredOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(logging.Options{Writer: buf, Level: "debug", JSON: true})

	logging.WithFields(logger, map[string]any{"field": "age"}).Warn("rule panicked: %v", "boom")

	out := buf.String()
	if strings.TrimSpace(out) == "" {
		t.Fatalf("expected log output")
	}
	if !strings.Contains(out, "rule panicked") {
		t.Fatalf("expected message in output, got %q", out)
	}
}

func TestNew_FormatsPrintfArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(logging.Options{Writer: buf, Level: "debug", JSON: true})

	logger.Error("render: label function for %s failed: %v", "age", "boom")

	out := buf.String()
	if !strings.Contains(out, "render: label function for age failed: boom") {
		t.Fatalf("expected formatted message, got %q", out)
	}
	if strings.Contains(out, "%s") || strings.Contains(out, "%v") {
		t.Fatalf("format verbs leaked into output: %q", out)
	}
}

func TestNew_KeepsMessageWithoutArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.New(logging.Options{Writer: buf, Level: "debug"}).Info("sweeper: started")
	if !strings.Contains(buf.String(), "sweeper: started") {
		t.Fatalf("expected message, got %q", buf.String())
	}
}

func TestNormalize_NilBecomesNop(t *testing.T) {
	logger := logging.Normalize(nil)
	logger.Error("discarded %d", 1)
	if logging.WithFields(nil, map[string]any{"a": 1}) == nil {
		t.Fatalf("expected non-nil logger")
	}
}
