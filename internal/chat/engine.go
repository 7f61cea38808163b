// Package chat 实现站点助手的对话引擎：关键词问答和项目咨询线索收集。
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio-go/internal/model"
	"portfolio-go/pkg/log"
)

// Mode 是会话当前所处的模式。
type Mode string

const (
	ModeGeneral        Mode = "general"
	ModeProjectInquiry Mode = "project_inquiry"
)

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrBusy 表示同一会话的上一条消息仍在处理中。
var ErrBusy = errors.New("chat: previous message is still being processed")

// Responder 为普通模式下的消息生成回复。
type Responder interface {
	Respond(ctx context.Context, sessionID, message string) (string, error)
}

// LeadSink 接收收集完成的项目咨询线索。
type LeadSink interface {
	SubmitLead(ctx context.Context, sessionID string, lead model.Lead) error
}

// Store 持久化会话状态。Load 在会话不存在时返回 (nil, nil)。
type Store interface {
	Load(ctx context.Context, sessionID string) (*model.ChatState, error)
	Save(ctx context.Context, sessionID string, state *model.ChatState) error
}

// TypingFunc 在等待后端时切换“正在输入”指示。
type TypingFunc func(on bool)

// Reply 是一条助手消息。Delay 是展示前建议的输入提示时长。
type Reply struct {
	Text  string        `json:"text"`
	Delay time.Duration `json:"-"`
}

// Result 是处理一条访客消息的结果。
type Result struct {
	Replies []Reply
	Mode    Mode
	Step    int
}

// Text 把所有回复合并为一段文本。
func (r Result) Text() string {
	parts := make([]string, len(r.Replies))
	for i, rep := range r.Replies {
		parts[i] = rep.Text
	}
	return strings.Join(parts, "\n\n")
}

// Options 是引擎的可配置文案与节奏。
type Options struct {
	OwnerName     string
	WhatsAppURL   string
	FallbackEmail string
	TypingDelay   time.Duration
}

// Engine 驱动每个访客会话的状态机。
type Engine struct {
	store     Store
	responder Responder
	sink      LeadSink
	opts      Options
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewEngine 创建一个对话引擎。
func NewEngine(store Store, responder Responder, sink LeadSink, opts Options) *Engine {
	return &Engine{
		store:     store,
		responder: responder,
		sink:      sink,
		opts:      opts,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

func (e *Engine) acquire(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[sessionID]; busy {
		return false
	}
	e.inflight[sessionID] = struct{}{}
	return true
}

func (e *Engine) release(sessionID string) {
	e.mu.Lock()
	delete(e.inflight, sessionID)
	e.mu.Unlock()
}

// State 返回会话状态；新会话以欢迎语开头。
func (e *Engine) State(ctx context.Context, sessionID string) (*model.ChatState, error) {
	state, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load chat session: %w", err)
	}
	if state == nil {
		state = &model.ChatState{
			Mode: string(ModeGeneral),
			Transcript: []model.ChatMessage{
				{Role: RoleAssistant, Content: e.welcome(), Timestamp: e.now()},
			},
			UpdatedAt: e.now(),
		}
	}
	if state.Mode == "" {
		state.Mode = string(ModeGeneral)
	}
	return state, nil
}

// Handle 处理访客的一条消息并返回助手的回复。
// 同一会话同一时刻只允许一条消息在处理中，否则返回 ErrBusy。
func (e *Engine) Handle(ctx context.Context, sessionID, message string, typing TypingFunc) (Result, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Result{}, &model.ValidationError{Field: "message", Message: "Message is required"}
	}
	if typing == nil {
		typing = func(bool) {}
	}
	if !e.acquire(sessionID) {
		return Result{}, ErrBusy
	}
	defer e.release(sessionID)

	state, err := e.State(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	e.retryPending(ctx, sessionID, state)
	e.appendTurn(state, RoleUser, msg)

	var replies []Reply
	switch {
	case Mode(state.Mode) == ModeProjectInquiry && state.Step > 0:
		replies = e.inquiryStep(ctx, sessionID, state, msg, typing)
	case DetectProjectIntent(msg):
		replies = e.startInquiry(state)
	default:
		replies = e.general(ctx, sessionID, msg, typing)
	}

	for _, r := range replies {
		e.appendTurn(state, RoleAssistant, r.Text)
	}
	state.UpdatedAt = e.now()
	if err := e.store.Save(ctx, sessionID, state); err != nil {
		// 回复已经生成，存储失败只记录日志
		log.Errorw("保存对话状态失败", "session_id", sessionID, "error", err)
	}
	return Result{Replies: replies, Mode: Mode(state.Mode), Step: state.Step}, nil
}

// SubmitLead 直接提交一份完整的线索（表单或旧版组件的提交路径）。
func (e *Engine) SubmitLead(ctx context.Context, sessionID string, lead model.Lead) error {
	if err := ValidateLead(lead); err != nil {
		return err
	}
	return e.sink.SubmitLead(ctx, sessionID, lead)
}

func (e *Engine) appendTurn(state *model.ChatState, role, text string) {
	state.Transcript = append(state.Transcript, model.ChatMessage{Role: role, Content: text, Timestamp: e.now()})
}

func (e *Engine) startInquiry(state *model.ChatState) []Reply {
	state.Mode = string(ModeProjectInquiry)
	state.Step = 1
	state.Draft = model.Lead{}
	return []Reply{
		{Text: e.intro()},
		{Text: Prompt(1), Delay: e.opts.TypingDelay},
	}
}

func (e *Engine) inquiryStep(ctx context.Context, sessionID string, state *model.ChatState, msg string, typing TypingFunc) []Reply {
	step := leadSteps[state.Step-1]
	if !step.valid(msg) {
		return []Reply{{Text: retryPrefix + step.prompt}}
	}
	step.set(&state.Draft, msg)
	if state.Step < LeadSteps {
		state.Step++
		return []Reply{{Text: Prompt(state.Step)}}
	}
	return []Reply{e.finalize(ctx, sessionID, state, typing)}
}

// finalize 提交线索并把会话重置为普通模式。提交失败时线索转入 Pending，
// 访客每发一条消息重试一次，直到投递成功或会话过期。
func (e *Engine) finalize(ctx context.Context, sessionID string, state *model.ChatState, typing TypingFunc) Reply {
	lead := state.Draft
	state.Mode = string(ModeGeneral)
	state.Step = 0
	state.Draft = model.Lead{}

	typing(true)
	err := e.sink.SubmitLead(ctx, sessionID, lead)
	typing(false)
	if err != nil {
		log.Errorw("项目咨询提交失败，等待重试",
			"session_id", sessionID, "error", err,
			"name", lead.Name, "email", lead.Email, "whatsapp", lead.WhatsApp,
			"requirements", lead.Requirements, "budget", lead.Budget,
			"timeline", lead.Timeline, "meeting", lead.MeetingPreference)
		state.Pending = &lead
		return Reply{Text: e.apology()}
	}
	return Reply{Text: e.confirmation(lead)}
}

func (e *Engine) retryPending(ctx context.Context, sessionID string, state *model.ChatState) {
	if state.Pending == nil {
		return
	}
	lead := *state.Pending
	if err := e.sink.SubmitLead(ctx, sessionID, lead); err != nil {
		log.Errorw("项目咨询重试失败，保留待下次重试",
			"session_id", sessionID, "error", err,
			"name", lead.Name, "email", lead.Email, "whatsapp", lead.WhatsApp,
			"requirements", lead.Requirements, "budget", lead.Budget,
			"timeline", lead.Timeline, "meeting", lead.MeetingPreference)
		return
	}
	state.Pending = nil
	log.Infow("项目咨询重试成功", "session_id", sessionID, "email", lead.Email)
}

func (e *Engine) general(ctx context.Context, sessionID, msg string, typing TypingFunc) []Reply {
	typing(true)
	text, err := e.responder.Respond(ctx, sessionID, msg)
	typing(false)
	if err != nil {
		log.Errorw("生成回复失败", "session_id", sessionID, "error", err)
		return []Reply{{Text: connectionTrouble}}
	}
	if strings.TrimSpace(text) == "" {
		text = emptyReply
	}
	return []Reply{{Text: text}}
}
