package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"portfolio-go/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memStore struct {
	mu     sync.Mutex
	states map[string][]byte
}

func newMemStore() *memStore { return &memStore{states: map[string][]byte{}} }

func (s *memStore) Load(_ context.Context, id string) (*model.ChatState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.states[id]
	if !ok {
		return nil, nil
	}
	var st model.ChatState
	err := json.Unmarshal(b, &st)
	return &st, err
}

func (s *memStore) Save(_ context.Context, id string, st *model.ChatState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.states[id] = b
	s.mu.Unlock()
	return nil
}

type fakeSink struct {
	mu    sync.Mutex
	fail  int // 接下来失败的次数
	leads []model.Lead
	calls int
}

func (s *fakeSink) SubmitLead(_ context.Context, _ string, l model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail > 0 {
		s.fail--
		return errors.New("smtp down")
	}
	s.leads = append(s.leads, l)
	return nil
}

type errResponder struct{}

func (errResponder) Respond(context.Context, string, string) (string, error) {
	return "", errors.New("backend down")
}

type blockingResponder struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingResponder) Respond(context.Context, string, string) (string, error) {
	close(b.started)
	<-b.release
	return "ok", nil
}

func newTestEngine(responder Responder, sink LeadSink) *Engine {
	if responder == nil {
		responder = NewKnowledgeBase(DefaultKnowledge("Sam"), 1)
	}
	if sink == nil {
		sink = &fakeSink{}
	}
	return NewEngine(newMemStore(), responder, sink, Options{
		OwnerName:     "Sam",
		WhatsAppURL:   "https://wa.me/15550001111",
		FallbackEmail: "sam@example.com",
		TypingDelay:   1500 * time.Millisecond,
	})
}

func send(t *testing.T, e *Engine, msg string) Result {
	t.Helper()
	res, err := e.Handle(context.Background(), "visitor-1", msg, nil)
	if err != nil {
		t.Fatalf("Handle(%q): %v", msg, err)
	}
	return res
}

var validAnswers = []string{
	"Sara Khan",
	"sara@example.com",
	"+92 312 3513049",
	"An online booking platform for clinics",
	"$5000-$10000",
	"2 months",
	"Yes please",
}

func TestScenarioGreeting(t *testing.T) {
	kb := NewKnowledgeBase(DefaultKnowledge("Sam"), 7)
	e := newTestEngine(kb, nil)

	res := send(t, e, "hi")
	if res.Mode != ModeGeneral || res.Step != 0 {
		t.Fatalf("mode/step: %s/%d", res.Mode, res.Step)
	}
	found := false
	for _, g := range kb.Greetings() {
		if res.Text() == g {
			found = true
		}
	}
	if !found {
		t.Fatalf("reply %q is not a greeting variant", res.Text())
	}
}

func TestScenarioStartInquiry(t *testing.T) {
	e := newTestEngine(nil, nil)
	res := send(t, e, "I want to build an app")
	if res.Mode != ModeProjectInquiry || res.Step != 1 {
		t.Fatalf("mode/step: %s/%d", res.Mode, res.Step)
	}
	if len(res.Replies) != 2 {
		t.Fatalf("replies: %+v", res.Replies)
	}
	if !strings.Contains(res.Replies[0].Text, "start a project with Sam") {
		t.Fatalf("intro: %q", res.Replies[0].Text)
	}
	if res.Replies[1].Text != Prompt(1) || res.Replies[1].Delay != 1500*time.Millisecond {
		t.Fatalf("name prompt: %+v", res.Replies[1])
	}
}

func TestScenarioInvalidEmail(t *testing.T) {
	e := newTestEngine(nil, nil)
	send(t, e, "can you build something")
	send(t, e, "Sara Khan")

	res := send(t, e, "not-an-email")
	if res.Step != 2 || res.Mode != ModeProjectInquiry {
		t.Fatalf("step must stay 2: %s/%d", res.Mode, res.Step)
	}
	want := "Hmm, that doesn't look right. " + Prompt(2)
	if res.Text() != want {
		t.Fatalf("reply: got=%q want=%q", res.Text(), want)
	}
	st, _ := e.State(context.Background(), "visitor-1")
	if st.Draft.Email != "" || st.Draft.Name != "Sara Khan" {
		t.Fatalf("draft: %+v", st.Draft)
	}
}

func TestRequirementsStepDoesNotAdvance(t *testing.T) {
	e := newTestEngine(nil, nil)
	send(t, e, "quote please")
	for _, a := range validAnswers[:3] {
		send(t, e, a)
	}
	res := send(t, e, "short app") // 9 个字符
	if res.Step != 4 {
		t.Fatalf("step: got=%d want=4", res.Step)
	}
	st, _ := e.State(context.Background(), "visitor-1")
	if st.Draft.Requirements != "" {
		t.Fatalf("requirements must stay unset: %q", st.Draft.Requirements)
	}
}

func TestScenarioCompleteInquiry(t *testing.T) {
	sink := &fakeSink{}
	e := newTestEngine(nil, sink)
	var typing []bool
	send(t, e, "I'd like to hire you")

	var res Result
	for i, a := range validAnswers {
		var err error
		res, err = e.Handle(context.Background(), "visitor-1", a, func(on bool) { typing = append(typing, on) })
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if i < LeadSteps-1 && res.Step != i+2 {
			t.Fatalf("after answer %d step=%d", i, res.Step)
		}
	}

	if res.Mode != ModeGeneral || res.Step != 0 {
		t.Fatalf("must reset: %s/%d", res.Mode, res.Step)
	}
	text := res.Text()
	for _, want := range []string{
		"sara@example.com",
		"+92 312 3513049",
		"📅 Sam will reach out on WhatsApp to schedule a meeting within 24 hours.",
		"https://wa.me/15550001111",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("confirmation missing %q:\n%s", want, text)
		}
	}
	if len(sink.leads) != 1 || sink.leads[0].Email != "sara@example.com" || sink.leads[0].MeetingPreference != "Yes please" {
		t.Fatalf("sink: %+v", sink.leads)
	}
	if len(typing) != 2 || !typing[0] || typing[1] {
		t.Fatalf("typing indicator around submission: %v", typing)
	}
	st, _ := e.State(context.Background(), "visitor-1")
	if st.Draft != (model.Lead{}) {
		t.Fatalf("draft must be cleared: %+v", st.Draft)
	}
}

func TestConfirmationEmailFollowUp(t *testing.T) {
	e := newTestEngine(nil, nil)
	send(t, e, "project")
	answers := append([]string{}, validAnswers...)
	answers[LeadSteps-1] = "No"
	var res Result
	for _, a := range answers {
		res = send(t, e, a)
	}
	if !strings.Contains(res.Text(), "Sam will review your requirements and get back to you via email within 24 hours.") {
		t.Fatalf("email follow-up line missing:\n%s", res.Text())
	}
}

func TestSinkFailureKeepsPendingAndRetriesOnce(t *testing.T) {
	sink := &fakeSink{fail: 1}
	e := newTestEngine(nil, sink)
	send(t, e, "develop a site")
	var res Result
	for _, a := range validAnswers {
		res = send(t, e, a)
	}
	if !strings.Contains(res.Text(), "Oops! Something went wrong") || !strings.Contains(res.Text(), "sam@example.com") {
		t.Fatalf("apology: %q", res.Text())
	}
	if res.Mode != ModeGeneral || res.Step != 0 {
		t.Fatalf("must reset after failure: %s/%d", res.Mode, res.Step)
	}
	st, _ := e.State(context.Background(), "visitor-1")
	if st.Pending == nil || st.Pending.Email != "sara@example.com" {
		t.Fatalf("pending lead: %+v", st.Pending)
	}

	send(t, e, "thanks")
	if len(sink.leads) != 1 || sink.calls != 2 {
		t.Fatalf("pending lead must be retried once: calls=%d leads=%d", sink.calls, len(sink.leads))
	}
	st, _ = e.State(context.Background(), "visitor-1")
	if st.Pending != nil {
		t.Fatal("pending must be cleared after retry")
	}
	send(t, e, "bye")
	if sink.calls != 2 {
		t.Fatalf("no further retries expected: calls=%d", sink.calls)
	}
}

func TestPendingLeadSurvivesFailedRetry(t *testing.T) {
	sink := &fakeSink{fail: 2}
	e := newTestEngine(nil, sink)
	send(t, e, "develop a site")
	for _, a := range validAnswers {
		send(t, e, a)
	}

	send(t, e, "thanks")
	st, _ := e.State(context.Background(), "visitor-1")
	if sink.calls != 2 || len(sink.leads) != 0 {
		t.Fatalf("calls=%d delivered=%d", sink.calls, len(sink.leads))
	}
	if st.Pending == nil || st.Pending.Email != "sara@example.com" {
		t.Fatalf("lead must stay pending after a failed retry: %+v", st.Pending)
	}

	send(t, e, "bye")
	st, _ = e.State(context.Background(), "visitor-1")
	if sink.calls != 3 || len(sink.leads) != 1 || st.Pending != nil {
		t.Fatalf("third attempt must deliver: calls=%d delivered=%d pending=%+v", sink.calls, len(sink.leads), st.Pending)
	}
}

func TestResponderFailure(t *testing.T) {
	e := newTestEngine(errResponder{}, nil)
	res := send(t, e, "what do you know about databases?")
	if res.Text() != "Sorry, I'm having trouble connecting. Please try again." || res.Mode != ModeGeneral {
		t.Fatalf("got %q %s", res.Text(), res.Mode)
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	e := newTestEngine(nil, nil)
	_, err := e.Handle(context.Background(), "v", "   ", nil)
	if !model.IsValidation(err) {
		t.Fatalf("got=%v want ValidationError", err)
	}
}

func TestInFlightGuard(t *testing.T) {
	br := blockingResponder{started: make(chan struct{}), release: make(chan struct{})}
	e := newTestEngine(br, nil)

	done := make(chan error, 1)
	go func() {
		_, err := e.Handle(context.Background(), "visitor-1", "tell me something", nil)
		done <- err
	}()
	<-br.started

	if _, err := e.Handle(context.Background(), "visitor-1", "hello?", nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("second message: got=%v want ErrBusy", err)
	}
	// 其他会话不受影响
	if _, err := e.Handle(context.Background(), "visitor-2", "I want to build an app", nil); err != nil {
		t.Fatalf("other session: %v", err)
	}

	close(br.release)
	if err := <-done; err != nil {
		t.Fatalf("first message: %v", err)
	}
	if _, err := e.Handle(context.Background(), "visitor-1", "I want to build an app", nil); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestTranscriptOrder(t *testing.T) {
	e := newTestEngine(nil, nil)
	send(t, e, "hi")
	send(t, e, "build me an app")

	st, err := e.State(context.Background(), "visitor-1")
	if err != nil {
		t.Fatal(err)
	}
	roles := make([]string, len(st.Transcript))
	for i, m := range st.Transcript {
		roles[i] = m.Role
	}
	want := []string{RoleAssistant, RoleUser, RoleAssistant, RoleUser, RoleAssistant, RoleAssistant}
	if strings.Join(roles, ",") != strings.Join(want, ",") {
		t.Fatalf("roles: %v", roles)
	}
	if st.Transcript[3].Content != "build me an app" {
		t.Fatalf("user turn: %q", st.Transcript[3].Content)
	}
}

func TestSubmitLeadValidates(t *testing.T) {
	sink := &fakeSink{}
	e := newTestEngine(nil, sink)
	bad := model.Lead{Name: "Sara", Email: "nope"}
	err := e.SubmitLead(context.Background(), "v", bad)
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "email" {
		t.Fatalf("got=%v", err)
	}
	good := model.Lead{
		Name: "Sara", Email: "s@x.io", WhatsApp: "15550001111", Requirements: "A long enough description",
		Budget: "$1k", Timeline: "ASAP", MeetingPreference: "no",
	}
	if err := e.SubmitLead(context.Background(), "v", good); err != nil {
		t.Fatalf("valid lead: %v", err)
	}
	if len(sink.leads) != 1 {
		t.Fatalf("sink calls: %d", len(sink.leads))
	}
}
