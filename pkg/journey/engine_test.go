package journey_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/journey"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

const caseRef = "CON-TEST0001"

var fixedNow = testsupport.FixedClock(2026, time.October, 14)

func loadJourney(t *testing.T) *definition.Journey {
	t.Helper()
	return testsupport.LoadJourney(t, "testdata", "contact-us")
}

func newEngine(t *testing.T, opts ...journey.Option) (*journey.Engine, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	opts = append([]journey.Option{journey.WithStore(s), journey.WithClock(fixedNow)}, opts...)
	e, err := journey.New(loadJourney(t), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, s
}

func submit(t *testing.T, e *journey.Engine, step string, body model.AnswerSet) journey.Result {
	t.Helper()
	res, err := e.Submit(context.Background(), journey.Submission{CaseRef: caseRef, Step: step, Body: body})
	if err != nil {
		t.Fatalf("Submit(%s): %v", step, err)
	}
	return res
}

func TestStartAllocatesReference(t *testing.T) {
	e, _ := newEngine(t)

	ref, url, err := e.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(ref, "CON-") || len(ref) != len("CON-")+8 {
		t.Fatalf("unexpected reference %q", ref)
	}
	if want := "/contact/" + ref + "/contact"; url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}
}

func TestSubmitRejectsWithoutSaving(t *testing.T) {
	e, s := newEngine(t)

	res := submit(t, e, "contact", model.AnswerSet{"contact": "email", "contact.phone": "0123"})
	if !res.Failed() {
		t.Fatalf("expected a rejected submission")
	}
	want := map[string]string{"contact.email": "This field is required"}
	got := map[string]string{}
	for path, fe := range res.Errors {
		got[path] = fe.Message
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if res.Summary == nil || len(res.Summary.Items) != 1 || res.Summary.Items[0].Href != "#contact.email" {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
	if len(res.Components) != 1 || res.Page == nil || res.Page.Values["contact"] != "email" {
		t.Fatalf("rejected page should echo the body, got %+v", res.Page)
	}

	rec, err := s.Load(context.Background(), caseRef)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Version != 0 || len(rec.Data) != 0 {
		t.Fatalf("record changed after rejection: %+v", rec)
	}
}

func TestSubmitSavesLiveAnswersAndRoutes(t *testing.T) {
	e, s := newEngine(t)

	res := submit(t, e, "contact", model.AnswerSet{
		"contact":       "email",
		"contact.email": "a@b.c",
		"contact.phone": "stale",
	})
	if res.Failed() {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
	if res.NextStep != "details" || res.NextURL != "/contact/"+caseRef+"/details" {
		t.Fatalf("unexpected routing %q %q", res.NextStep, res.NextURL)
	}
	if res.Record.Version != 1 {
		t.Fatalf("version = %d, want 1", res.Record.Version)
	}

	rec, _ := s.Load(context.Background(), caseRef)
	want := map[string]any{"contact": map[string]any{"contact": "email", "contact.email": "a@b.c"}}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Fatalf("saved data mismatch (-want +got):\n%s", diff)
	}

	phone := submit(t, e, "contact", model.AnswerSet{"contact": "phone", "contact.phone": "0123"})
	if phone.NextStep != "check" {
		t.Fatalf("phone route = %q, want check", phone.NextStep)
	}
	rec, _ = s.Load(context.Background(), caseRef)
	saved := rec.Data["contact"].(map[string]any)
	if saved["contact"] != "phone" || saved["contact.phone"] != "0123" {
		t.Fatalf("second save not merged: %+v", saved)
	}
}

func TestSubmitStoresDatesAsObjects(t *testing.T) {
	e, s := newEngine(t)

	submit(t, e, "contact", model.AnswerSet{"contact": "email", "contact.email": "a@b.c"})
	res := submit(t, e, "details", model.AnswerSet{
		"message":   "Hello",
		"dob-day":   "1",
		"dob-month": "2",
		"dob-year":  "1990",
	})
	if res.Failed() || res.NextStep != "check" {
		t.Fatalf("unexpected result %+v", res)
	}

	rec, _ := s.Load(context.Background(), caseRef)
	details := rec.Data["details"].(map[string]any)
	if diff := cmp.Diff(map[string]any{"day": "1", "month": "2", "year": "1990"}, details["dob"]); diff != "" {
		t.Fatalf("date mismatch (-want +got):\n%s", diff)
	}

	page, err := e.Page(context.Background(), caseRef, "details", "")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	date := page.Components[1].Component.DateItems
	if len(date) != 3 || date[0].Value != "1" || date[2].Value != "1990" {
		t.Fatalf("saved date not rendered: %+v", date)
	}
}

func TestSubmitFutureDateRejected(t *testing.T) {
	e, _ := newEngine(t)

	res := submit(t, e, "details", model.AnswerSet{
		"message":   "Hello",
		"dob-day":   "1",
		"dob-month": "1",
		"dob-year":  "2030",
	})
	if _, ok := res.Errors["dob"]; !ok {
		t.Fatalf("expected a dob error, got %+v", res.Errors)
	}
}

func TestSubmitTerminalStepCompletes(t *testing.T) {
	e, _ := newEngine(t)

	submit(t, e, "contact", model.AnswerSet{"contact": "phone", "contact.phone": "0123"})
	res := submit(t, e, "check", model.AnswerSet{})
	if !res.Complete || res.NextURL != "" {
		t.Fatalf("expected completion, got %+v", res)
	}
}

func TestSubmitDeadEnd(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.Submit(context.Background(), journey.Submission{CaseRef: caseRef, Step: "orphan"})
	if !journey.IsDeadEnd(err) {
		t.Fatalf("expected dead end, got %v", err)
	}
	if res.Record.Version != 1 {
		t.Fatalf("answers should be saved before routing, version = %d", res.Record.Version)
	}
}

func TestUnknownStep(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Page(context.Background(), caseRef, "nope", "")
	if got := journey.ErrorCode(err); got != "JOURNEY_UNKNOWN_STEP" {
		t.Fatalf("code = %q, err = %v", got, err)
	}
}

func TestGuardRedirectsToOwningStep(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	url, err := e.Guard(ctx, caseRef, "check")
	if err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if want := "/contact/" + caseRef + "/contact"; url != want {
		t.Fatalf("redirect = %q, want %q", url, want)
	}

	submit(t, e, "contact", model.AnswerSet{"contact": "phone", "contact.phone": "0123"})
	url, err = e.Guard(ctx, caseRef, "check")
	if err != nil || url != "" {
		t.Fatalf("expected access, got %q %v", url, err)
	}
}

func TestPageBackLinkFollowsAnswers(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	submit(t, e, "contact", model.AnswerSet{"contact": "phone", "contact.phone": "0123"})
	page, err := e.Page(ctx, caseRef, "check", "")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if want := "/contact/" + caseRef + "/contact"; page.BackURL != want {
		t.Fatalf("phone back link = %q, want %q", page.BackURL, want)
	}

	submit(t, e, "contact", model.AnswerSet{"contact": "email", "contact.email": "a@b.c"})
	page, _ = e.Page(ctx, caseRef, "check", "")
	if want := "/contact/" + caseRef + "/details"; page.BackURL != want {
		t.Fatalf("email back link = %q, want %q", page.BackURL, want)
	}

	contact, _ := e.Page(ctx, caseRef, "contact", "")
	if contact.Title != "How should we contact you?" || contact.Version != 2 {
		t.Fatalf("unexpected page header %+v", contact)
	}
	items := contact.Components[0].Component.Items
	if !items[0].Checked || items[1].Checked {
		t.Fatalf("saved radio not checked: %+v", items)
	}
	if !strings.Contains(items[0].Conditional.HTML, `value="a@b.c"`) {
		t.Fatalf("conditional missing saved email: %s", items[0].Conditional.HTML)
	}
}

func TestRenderCarriesVersion(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	submit(t, e, "contact", model.AnswerSet{"contact": "email", "contact.email": "a@b.c"})
	page, err := e.Page(ctx, caseRef, "details", "")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	html, err := e.Render(page)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		`<input type="hidden" name="_version" value="1">`,
		`action="/contact/` + caseRef + `/details"`,
		`href="/contact/` + caseRef + `/contact"`,
		"Your details",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q:\n%s", want, html)
		}
	}
}

func TestCheckHookErrors(t *testing.T) {
	var seen model.AnswerSet
	e, s := newEngine(t, journey.WithCheck(func(_ context.Context, sub journey.Submission, answers model.AnswerSet) (map[string][]string, error) {
		seen = answers
		return map[string][]string{
			"/body/contact/email": {"That address bounced"},
			"__all__":             {"Try again later"},
		}, nil
	}))

	res := submit(t, e, "contact", model.AnswerSet{"contact": "email", "contact.email": "a@b.c"})
	if res.Errors.Message("contact.email") != "That address bounced" {
		t.Fatalf("check error not mapped: %+v", res.Errors)
	}
	if diff := cmp.Diff([]string{"Try again later"}, res.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if seen["contact.email"] != "a@b.c" {
		t.Fatalf("check received %+v", seen)
	}

	html, err := e.Render(res.Page)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(html, "Try again later") || !strings.Contains(html, `href="#contact.email"`) {
		t.Fatalf("summary missing check errors:\n%s", html)
	}

	rec, _ := s.Load(context.Background(), caseRef)
	if rec.Version != 0 {
		t.Fatalf("check failure must not save, version = %d", rec.Version)
	}
}

func TestStrictStoreConflict(t *testing.T) {
	e, err := journey.New(loadJourney(t), journey.WithStore(store.NewMemoryStore(store.WithStrictVersions())))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	body := model.AnswerSet{"contact": "phone", "contact.phone": "0123"}
	sub := journey.Submission{CaseRef: caseRef, Step: "contact", Body: body}

	if _, err := e.Submit(context.Background(), sub); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := e.Submit(context.Background(), sub); err == nil || journey.ErrorCode(err) != "STORE_VERSION_CONFLICT" {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestSubmitDetailsErrorsGolden(t *testing.T) {
	e, s := newEngine(t)

	res := submit(t, e, "details", model.AnswerSet{
		"message":   "",
		"dob-day":   "1",
		"dob-month": "",
		"dob-year":  "1990",
	})
	if !res.Failed() {
		t.Fatalf("expected rejection")
	}
	testsupport.AssertJSONGolden(t, "testdata/details_errors.golden", res.Errors)

	rec, err := s.Load(testsupport.Context(), caseRef)
	if err != nil || rec.Version != 0 {
		t.Fatalf("rejected submission must not save: %+v, %v", rec, err)
	}
}

func newPreferencesEngine(t *testing.T) (*journey.Engine, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	e, err := journey.New(testsupport.LoadJourney(t, "testdata", "preferences"), journey.WithStore(s), journey.WithClock(fixedNow))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, s
}

func TestResubmitClearedAnswers(t *testing.T) {
	e, s := newPreferencesEngine(t)

	first := submit(t, e, "one", model.AnswerSet{"extras": "other", "extras.details": "x", "nickname": "Bob"})
	if first.Failed() {
		t.Fatalf("first submit: %+v", first.Errors)
	}

	cleared := submit(t, e, "one", model.AnswerSet{})
	if cleared.Failed() {
		t.Fatalf("hidden sub-field blocked the cleared submission: %+v", cleared.Errors)
	}
	if cleared.NextStep != "done" {
		t.Fatalf("next = %q, want done", cleared.NextStep)
	}

	rec, _ := s.Load(context.Background(), caseRef)
	want := map[string]any{"one": map[string]any{"extras": nil, "extras.details": nil, "nickname": nil}}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Fatalf("cleared answers mismatch (-want +got):\n%s", diff)
	}

	page, err := e.Page(context.Background(), caseRef, "one", "")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if got := page.Components[1].Component.Value; got != "" {
		t.Fatalf("cleared nickname came back as %q", got)
	}
}

func TestResubmitChangedSelectionDropsSubField(t *testing.T) {
	e, s := newPreferencesEngine(t)

	submit(t, e, "one", model.AnswerSet{"extras": "other", "extras.details": "x"})

	changed := submit(t, e, "one", model.AnswerSet{"extras": "post", "extras.details": "ignored"})
	if changed.Failed() {
		t.Fatalf("changed submit: %+v", changed.Errors)
	}
	rec, _ := s.Load(context.Background(), caseRef)
	want := map[string]any{"one": map[string]any{"extras": []string{"post"}, "extras.details": nil}}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Fatalf("changed answers mismatch (-want +got):\n%s", diff)
	}

	again := submit(t, e, "one", model.AnswerSet{"extras": []string{"post", "other"}})
	if _, ok := again.Errors["extras.details"]; !ok {
		t.Fatalf("reselected sub-field should be required again, got %+v", again.Errors)
	}
}
