package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"portfolio-go/internal/chat"
	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/internal/notify"
	"portfolio-go/internal/repository"
	"portfolio-go/pkg/log"
)

// trivialPattern 匹配不值得通知站长的寒暄。
var trivialPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|bye|thanks|thank|ok|yes|no|sure)\b`)

// ChatbotService 是对话引擎的后端：生成普通回复并接收线索。
type ChatbotService interface {
	chat.Responder
	chat.LeadSink
}

type chatbotService struct {
	kb       *chat.KnowledgeBase
	repo     repository.ContentRepository
	notifier notify.Notifier
}

// NewChatbotService 创建一个新的 ChatbotService 实例。
func NewChatbotService(kb *chat.KnowledgeBase, repo repository.ContentRepository, notifier notify.Notifier) ChatbotService {
	return &chatbotService{kb: kb, repo: repo, notifier: notifier}
}

func sessionOrAnonymous(id string) string {
	if strings.TrimSpace(id) == "" {
		return "anonymous"
	}
	return id
}

// Respond 生成回复、写入 chatbot_logs，并对非寒暄消息通知站长。
// 日志和通知失败只记录，不影响回复。
func (s *chatbotService) Respond(ctx context.Context, sessionID, message string) (string, error) {
	reply := s.kb.Answer(message)
	sid := sessionOrAnonymous(sessionID)

	_, err := s.repo.Insert(ctx, content.ChatbotLogs, model.Record{
		"session_id":   sid,
		"user_message": message,
		"bot_response": reply,
	})
	if err != nil && !errors.Is(err, model.ErrStoreUnavailable) {
		log.Errorw("写入 chatbot_logs 失败", "session_id", sid, "error", err)
	}

	if !trivialPattern.MatchString(strings.TrimSpace(message)) {
		if err := s.notifier.NotifyChat(ctx, sid, message, reply); err != nil {
			log.Errorw("发送对话通知失败", "session_id", sid, "error", err)
		}
	}
	return reply, nil
}

// SubmitLead 记录线索并通知站长，任一步失败都返回错误。
// 内容存储未配置时跳过记录。
func (s *chatbotService) SubmitLead(ctx context.Context, sessionID string, lead model.Lead) error {
	sid := sessionOrAnonymous(sessionID)
	payload, err := json.Marshal(lead)
	if err != nil {
		return err
	}
	if err := s.logLead(ctx, sid, lead, string(payload)); err != nil {
		return err
	}
	if err := s.notifier.NotifyLead(ctx, sid, lead); err != nil {
		return err
	}
	log.Infow("项目咨询已提交", "session_id", sid, "name", lead.Name, "email", lead.Email)
	return nil
}

// logLead 写入线索日志。通知失败后的重试会再次调用，已存在相同记录时跳过。
func (s *chatbotService) logLead(ctx context.Context, sid string, lead model.Lead, payload string) error {
	row := model.Record{
		"session_id":   sid,
		"user_message": fmt.Sprintf("PROJECT INQUIRY: %s (%s)", lead.Name, lead.Email),
		"bot_response": payload,
	}
	n, err := s.repo.CountWhere(ctx, content.ChatbotLogs, row)
	if errors.Is(err, model.ErrStoreUnavailable) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("log project inquiry: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.repo.Insert(ctx, content.ChatbotLogs, row); err != nil && !errors.Is(err, model.ErrStoreUnavailable) {
		return fmt.Errorf("log project inquiry: %w", err)
	}
	return nil
}
