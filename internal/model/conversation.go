package model

import "time"

// ChatMessage 代表对话记录中的一条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Lead 是项目咨询流程收集到的七个字段。
type Lead struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	WhatsApp          string `json:"whatsapp"`
	Requirements      string `json:"requirements"`
	Budget            string `json:"budget"`
	Timeline          string `json:"timeline"`
	MeetingPreference string `json:"meetingPreference"`
}

// ChatState 是单个访客会话的对话状态，存放在 memory 或 Redis 中。
type ChatState struct {
	Mode       string        `json:"mode"`
	Step       int           `json:"step"`
	Draft      Lead          `json:"draft"`
	Transcript []ChatMessage `json:"transcript"`
	// Pending 保存投递失败、等待下一条消息时重试的线索。
	Pending   *Lead     `json:"pending,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
