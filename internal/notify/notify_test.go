package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"portfolio-go/internal/model"
	"portfolio-go/pkg/tasks"
)

type recordingTransport struct {
	tasks []tasks.NotificationTask
	err   error
}

func (r *recordingTransport) Deliver(_ context.Context, task tasks.NotificationTask) error {
	if r.err != nil {
		return r.err
	}
	r.tasks = append(r.tasks, task)
	return nil
}

func TestNotifyLead(t *testing.T) {
	tr := &recordingTransport{}
	n := New(tr)
	lead := model.Lead{
		Name: "Sara", Email: "sara@example.com", WhatsApp: "+92 312 3513049",
		Requirements: "Line one\n<script>alert(1)</script>", Budget: "$5k", Timeline: "ASAP", MeetingPreference: "yes",
	}
	if err := n.NotifyLead(context.Background(), "session-123456789", lead); err != nil {
		t.Fatalf("NotifyLead: %v", err)
	}
	if len(tr.tasks) != 1 {
		t.Fatalf("tasks: %d", len(tr.tasks))
	}
	task := tr.tasks[0]
	if task.Kind != tasks.KindLead || task.ReplyTo != "sara@example.com" || task.ID == "" {
		t.Fatalf("task: %+v", task)
	}
	if !strings.Contains(task.Subject, "Sara") {
		t.Fatalf("subject: %q", task.Subject)
	}
	if !strings.Contains(task.HTMLBody, "Line one<br>") {
		t.Fatal("newlines must become <br>")
	}
	if strings.Contains(task.HTMLBody, "<script>") {
		t.Fatal("requirements must be escaped")
	}
}

func TestNotifyChatSubjectUsesShortSession(t *testing.T) {
	tr := &recordingTransport{}
	if err := New(tr).NotifyChat(context.Background(), "abcdef1234567", "what stack?", "Go"); err != nil {
		t.Fatal(err)
	}
	if tr.tasks[0].Subject != "Chatbot Query - Session abcdef12" {
		t.Fatalf("subject: %q", tr.tasks[0].Subject)
	}
}

func TestNotifyWrapsTransportError(t *testing.T) {
	boom := errors.New("smtp down")
	err := New(&recordingTransport{err: boom}).NotifyContact(context.Background(), model.Message{Name: "A", Email: "a@b.co", Subject: "Hi", Message: "Hello"})
	if !errors.Is(err, boom) {
		t.Fatalf("got=%v", err)
	}
}
