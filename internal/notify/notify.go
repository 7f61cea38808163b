// Package notify 负责把线索、助手对话和联系表单通知站长。
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"portfolio-go/internal/model"
	"portfolio-go/pkg/kafka"
	"portfolio-go/pkg/mailer"
	"portfolio-go/pkg/tasks"
)

// Notifier 通知站长。
type Notifier interface {
	NotifyLead(ctx context.Context, sessionID string, lead model.Lead) error
	NotifyChat(ctx context.Context, sessionID, userMessage, botResponse string) error
	NotifyContact(ctx context.Context, msg model.Message) error
}

// Transport 投递一条已渲染的通知。
type Transport interface {
	Deliver(ctx context.Context, task tasks.NotificationTask) error
}

type notifier struct {
	transport Transport
	now       func() time.Time
}

// New 创建一个通过 transport 投递的 Notifier。
func New(transport Transport) Notifier {
	return &notifier{transport: transport, now: time.Now}
}

func (n *notifier) NotifyLead(ctx context.Context, sessionID string, lead model.Lead) error {
	task, err := RenderLead(sessionID, lead)
	if err != nil {
		return err
	}
	return n.deliver(ctx, task)
}

func (n *notifier) NotifyChat(ctx context.Context, sessionID, userMessage, botResponse string) error {
	task, err := RenderChat(sessionID, userMessage, botResponse)
	if err != nil {
		return err
	}
	return n.deliver(ctx, task)
}

func (n *notifier) NotifyContact(ctx context.Context, msg model.Message) error {
	task, err := RenderContact(msg)
	if err != nil {
		return err
	}
	return n.deliver(ctx, task)
}

func (n *notifier) deliver(ctx context.Context, task tasks.NotificationTask) error {
	task.ID = uuid.NewString()
	task.CreatedAt = n.now()
	if err := n.transport.Deliver(ctx, task); err != nil {
		return fmt.Errorf("deliver %s notification: %w", task.Kind, err)
	}
	return nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderLead 渲染项目咨询通知。
func RenderLead(sessionID string, lead model.Lead) (tasks.NotificationTask, error) {
	body, err := render(leadTmpl, struct {
		SessionID string
		Lead      model.Lead
	}{sessionID, lead})
	if err != nil {
		return tasks.NotificationTask{}, err
	}
	return tasks.NotificationTask{
		Kind:     tasks.KindLead,
		Subject:  fmt.Sprintf("🚀 New project inquiry from %s", lead.Name),
		HTMLBody: body,
		ReplyTo:  lead.Email,
	}, nil
}

// RenderChat 渲染助手对话通知。
func RenderChat(sessionID, userMessage, botResponse string) (tasks.NotificationTask, error) {
	body, err := render(chatTmpl, struct {
		SessionID, UserMessage, BotResponse string
	}{sessionID, userMessage, botResponse})
	if err != nil {
		return tasks.NotificationTask{}, err
	}
	return tasks.NotificationTask{
		Kind:     tasks.KindChat,
		Subject:  fmt.Sprintf("Chatbot Query - Session %s", shortID(sessionID)),
		HTMLBody: body,
	}, nil
}

// RenderContact 渲染联系表单通知。
func RenderContact(msg model.Message) (tasks.NotificationTask, error) {
	body, err := render(contactTmpl, msg)
	if err != nil {
		return tasks.NotificationTask{}, err
	}
	return tasks.NotificationTask{
		Kind:     tasks.KindContact,
		Subject:  fmt.Sprintf("Portfolio Contact: %s", msg.Subject),
		HTMLBody: body,
		ReplyTo:  msg.Email,
	}, nil
}

// MailTransport 直接通过 SMTP 投递。
type MailTransport struct {
	Mailer *mailer.Mailer
}

func (t MailTransport) Deliver(ctx context.Context, task tasks.NotificationTask) error {
	return t.Mailer.Send(ctx, mailer.Message{
		ReplyTo:  task.ReplyTo,
		Subject:  task.Subject,
		HTMLBody: task.HTMLBody,
	})
}

// Process 实现 kafka.TaskProcessor，供 notifier 进程消费队列时使用。
func (t MailTransport) Process(ctx context.Context, task tasks.NotificationTask) error {
	return t.Deliver(ctx, task)
}

// KafkaTransport 把通知写入 Kafka，由 notifier 进程异步发送。
type KafkaTransport struct {
	Producer *kafka.Producer
}

func (t KafkaTransport) Deliver(ctx context.Context, task tasks.NotificationTask) error {
	return t.Producer.Produce(ctx, task)
}

// NopTransport 丢弃所有通知。
type NopTransport struct{}

func (NopTransport) Deliver(context.Context, tasks.NotificationTask) error { return nil }
