package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"portfolio-go/internal/config"
	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/internal/notify"
	"portfolio-go/internal/repository"
	"portfolio-go/pkg/log"
)

var contactEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactForm 是访客提交的联系表单。
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SiteService 为公开站点提供内容和联系表单。
type SiteService interface {
	// About 返回个人简介；行不存在或存储不可用时返回配置的默认值。
	About(ctx context.Context) model.Record
	// List 返回公开列表；存储不可用时返回空列表。
	List(ctx context.Context, t content.Table) ([]model.Record, error)
	Project(ctx context.Context, id uint) (model.Record, error)
	Contact(ctx context.Context, form ContactForm) error
}

type siteService struct {
	repo     repository.ContentRepository
	notifier notify.Notifier
	defaults config.SiteConfig
}

// NewSiteService 创建一个新的 SiteService 实例。
func NewSiteService(repo repository.ContentRepository, notifier notify.Notifier, defaults config.SiteConfig) SiteService {
	return &siteService{repo: repo, notifier: notifier, defaults: defaults}
}

func (s *siteService) About(ctx context.Context) model.Record {
	rows, err := s.repo.List(ctx, content.About)
	if err == nil && len(rows) > 0 {
		return rows[0]
	}
	if err != nil && !errors.Is(err, model.ErrStoreUnavailable) {
		log.Errorw("读取 about 失败，使用默认资料", "error", err)
	}
	return model.Record{
		"name":       s.defaults.Name,
		"title":      s.defaults.Title,
		"tagline":    s.defaults.Tagline,
		"bio":        s.defaults.Bio,
		"photo_url":  s.defaults.PhotoURL,
		"resume_url": s.defaults.ResumeURL,
	}
}

func (s *siteService) List(ctx context.Context, t content.Table) ([]model.Record, error) {
	rows, err := s.repo.List(ctx, t)
	if errors.Is(err, model.ErrStoreUnavailable) {
		return []model.Record{}, nil
	}
	return rows, err
}

func (s *siteService) Project(ctx context.Context, id uint) (model.Record, error) {
	return s.repo.Get(ctx, content.Projects, id)
}

func (s *siteService) Contact(ctx context.Context, form ContactForm) error {
	msg := model.Message{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Subject: strings.TrimSpace(form.Subject),
		Message: strings.TrimSpace(form.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return &model.ValidationError{Message: "All fields are required"}
	}
	if !contactEmailRe.MatchString(msg.Email) {
		return &model.ValidationError{Field: "email", Message: "Invalid email address"}
	}

	_, err := s.repo.Insert(ctx, content.Messages, model.Record{
		"name":    msg.Name,
		"email":   msg.Email,
		"subject": msg.Subject,
		"message": msg.Message,
		"read":    false,
	})
	if err != nil {
		return err
	}
	if err := s.notifier.NotifyContact(ctx, msg); err != nil {
		log.Errorw("发送联系表单通知失败", "email", msg.Email, "error", err)
	}
	return nil
}
