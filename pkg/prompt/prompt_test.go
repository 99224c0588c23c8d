package prompt_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/journey"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/prompt"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/testsupport"
	"github.com/goliatone/go-formflow/pkg/validation"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	multiIdx  [][]int
	textAreas []string
	confirms  []bool

	inputPos   int
	selectPos  int
	multiPos   int
	textPos    int
	confirmPos int

	inputConfigs   []prompt.InputConfig
	selectConfigs  []prompt.SelectConfig
	textConfigs    []prompt.TextAreaConfig
	confirmConfigs []prompt.ConfirmConfig
	infoMessages   []string
}

func (s *stubDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	s.confirmConfigs = append(s.confirmConfigs, cfg)
	if s.confirmPos >= len(s.confirms) {
		return cfg.Default, nil
	}
	val := s.confirms[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	s.selectConfigs = append(s.selectConfigs, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	s.selectConfigs = append(s.selectConfigs, cfg)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	s.textConfigs = append(s.textConfigs, cfg)
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func loadFeedback(t *testing.T) *definition.Journey {
	t.Helper()
	return testsupport.LoadJourney(t, "testdata", "feedback")
}

func TestAskStepMapsKinds(t *testing.T) {
	step, _ := loadFeedback(t).Step("about")
	driver := &stubDriver{
		inputs:   []string{"Ada", "1", "2", "1990"},
		multiIdx: [][]int{{1}},
	}

	body, err := prompt.AskStep(context.Background(), driver, step.Fields,
		model.AnswerSet{"name": "Old", "topics": []string{"billing"}}, nil, i18n.Localizer{})
	if err != nil {
		t.Fatalf("AskStep: %v", err)
	}

	want := model.AnswerSet{
		"name":          "Ada",
		"topics":        []string{"support"},
		"visited-day":   "1",
		"visited-month": "2",
		"visited-year":  "1990",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if driver.inputConfigs[0].Default != "Old" {
		t.Fatalf("saved value not used as default: %+v", driver.inputConfigs[0])
	}
	if diff := cmp.Diff([]int{0}, driver.selectConfigs[0].Defaults); diff != "" {
		t.Fatalf("checkbox defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Day", "Month", "Year"}, []string{
		driver.inputConfigs[1].Message, driver.inputConfigs[2].Message, driver.inputConfigs[3].Message,
	}); diff != "" {
		t.Fatalf("date prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestAskStepRecursesIntoSelectedOption(t *testing.T) {
	step, _ := loadFeedback(t).Step("rate")
	driver := &stubDriver{selectIdx: []int{1}, textAreas: []string{"slow"}}
	errs := validation.ErrorMap{"rating.why": {Message: "Tell us why"}}

	body, err := prompt.AskStep(context.Background(), driver, step.Fields, nil, errs, i18n.Localizer{})
	if err != nil {
		t.Fatalf("AskStep: %v", err)
	}
	if diff := cmp.Diff(model.AnswerSet{"rating": "bad", "rating.why": "slow"}, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Good", "Bad"}, driver.selectConfigs[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(driver.textConfigs[0].Help, "100 characters maximum") {
		t.Fatalf("textarea help = %q", driver.textConfigs[0].Help)
	}
	if diff := cmp.Diff([]string{"! Tell us why"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestAskStepSkipsUnselectedSubFields(t *testing.T) {
	step, _ := loadFeedback(t).Step("rate")
	driver := &stubDriver{selectIdx: []int{0}}

	body, err := prompt.AskStep(context.Background(), driver, step.Fields, nil, nil, i18n.Localizer{})
	if err != nil {
		t.Fatalf("AskStep: %v", err)
	}
	if diff := cmp.Diff(model.AnswerSet{"rating": "good"}, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if len(driver.textConfigs) != 0 {
		t.Fatalf("hidden sub-field was asked: %+v", driver.textConfigs)
	}
}

func TestRunRetriesRejectedStep(t *testing.T) {
	s := store.NewMemoryStore()
	engine, err := journey.New(loadFeedback(t), journey.WithStore(s))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	driver := &stubDriver{
		selectIdx: []int{1, 1},
		textAreas: []string{"", "slow"},
		inputs:    []string{"Ada", "", "", ""},
		multiIdx:  [][]int{{}},
	}

	rec, err := prompt.Run(context.Background(), engine, driver, "REF-RUN", "", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Version != 3 {
		t.Fatalf("version = %d, want 3", rec.Version)
	}
	want := map[string]any{
		"rate":  map[string]any{"rating": "bad", "rating.why": "slow"},
		"about": map[string]any{"name": "Ada"},
		"done":  map[string]any{},
	}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if driver.selectConfigs[1].DefaultIndex != 1 {
		t.Fatalf("retry should default to the rejected answer, got %d", driver.selectConfigs[1].DefaultIndex)
	}
	if driver.selectConfigs[0].PageSize != 2 {
		t.Fatalf("page size = %d, want 2", driver.selectConfigs[0].PageSize)
	}
	if len(driver.confirmConfigs) != 1 || driver.confirmConfigs[0].Message != "Submit your answers?" {
		t.Fatalf("expected one confirm before the terminal step, got %+v", driver.confirmConfigs)
	}

	joined := strings.Join(driver.infoMessages, "\n")
	for _, want := range []string{"== Rate the service ==", "! This field is required", "== Done =="} {
		if !strings.Contains(joined, want) {
			t.Fatalf("info messages missing %q:\n%s", want, joined)
		}
	}
}

func TestRunPropagatesDriverErrors(t *testing.T) {
	engine, err := journey.New(loadFeedback(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = prompt.Run(context.Background(), engine, &stubDriver{}, "REF-ERR", "", "")
	if err == nil || !strings.Contains(err.Error(), "no select scripted") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestRunDeclinedConfirmAborts(t *testing.T) {
	s := store.NewMemoryStore()
	engine, err := journey.New(loadFeedback(t), journey.WithStore(s))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	driver := &stubDriver{confirms: []bool{false}}

	_, err = prompt.Run(context.Background(), engine, driver, "REF-NO", "done", "")
	if !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	rec, err := s.Load(context.Background(), "REF-NO")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Version != 0 {
		t.Fatalf("declined step was saved, version = %d", rec.Version)
	}
}
