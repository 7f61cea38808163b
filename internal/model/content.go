// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"time"

	"gorm.io/datatypes"
)

// About 是站点的个人简介，整张表至多一行。
type About struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Tagline   string    `gorm:"type:varchar(512)" json:"tagline"`
	Bio       string    `gorm:"type:text" json:"bio"`
	PhotoURL  string    `gorm:"type:varchar(1024)" json:"photo_url"`
	ResumeURL string    `gorm:"type:varchar(1024)" json:"resume_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (About) TableName() string { return "about" }

// Skill 是一项技能及其熟练度 (0-100)。
type Skill struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Category  string    `gorm:"type:varchar(64)" json:"category"`
	Level     int       `gorm:"not null" json:"level"`
	Order     int       `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Skill) TableName() string { return "skills" }

// Project 对应 projects 表，technologies 以 JSON 数组存储。
type Project struct {
	ID           uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description  string                      `gorm:"type:text" json:"description"`
	ImageURL     string                      `gorm:"type:varchar(1024)" json:"image_url"`
	LiveURL      string                      `gorm:"type:varchar(1024)" json:"live_url"`
	GithubURL    string                      `gorm:"type:varchar(1024)" json:"github_url"`
	Technologies datatypes.JSONSlice[string] `json:"technologies"`
	Featured     bool                        `gorm:"not null;default:false" json:"featured"`
	Impact       string                      `gorm:"type:text" json:"impact"`
	Learnings    string                      `gorm:"type:text" json:"learnings"`
	Order        int                         `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Experience 对应 experience 表。end_date 为空表示至今。
type Experience struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Company     string    `gorm:"type:varchar(255)" json:"company"`
	Description string    `gorm:"type:text" json:"description"`
	StartDate   string    `gorm:"type:varchar(32)" json:"start_date"`
	EndDate     *string   `gorm:"type:varchar(32)" json:"end_date"`
	Current     bool      `gorm:"not null;default:false" json:"current"`
	Order       int       `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Experience) TableName() string { return "experience" }

// Certification 对应 certifications 表，date 为自由文本（如 "2026"）。
type Certification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Issuer    string    `gorm:"type:varchar(255)" json:"issuer"`
	Date      string    `gorm:"type:varchar(64)" json:"date"`
	URL       string    `gorm:"type:varchar(1024)" json:"url"`
	Badge     string    `gorm:"type:varchar(64)" json:"badge"`
	Order     int       `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Certification) TableName() string { return "certifications" }

// Message 是访客通过联系表单提交的留言，只追加。
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(512)" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// ChatbotLog 记录助手的每一次问答以及提交的项目咨询，只追加。
type ChatbotLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string    `gorm:"type:varchar(64);index" json:"session_id"`
	UserMessage string    `gorm:"type:text" json:"user_message"`
	BotResponse string    `gorm:"type:text" json:"bot_response"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ChatbotLog) TableName() string { return "chatbot_logs" }
