// Package mailer 通过 SMTP 发送站长通知邮件。
package mailer

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"

	"portfolio-go/internal/config"
)

// Message 是一封待发送的 HTML 邮件。
type Message struct {
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
}

// Mailer 封装了 gomail 的 Dialer。
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// New 根据 SMTP 配置创建 Mailer。
func New(cfg config.MailConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Username,
		to:     cfg.To,
	}
}

// Send 发送一封邮件。To 为空时发往配置的站长邮箱。
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := msg.To
	if to == "" {
		to = m.to
	}
	if to == "" {
		return errors.New("mailer: no recipient configured")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", to)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)
	return m.dialer.DialAndSend(gm)
}
