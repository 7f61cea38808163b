package chat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"portfolio-go/internal/model"
)

// LeadSteps 是项目咨询流程的步数。
const LeadSteps = 7

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneStrip = regexp.MustCompile(`[\s\-+]`)
	phoneRe    = regexp.MustCompile(`^\d{8,15}$`)
)

// projectKeywords 触发项目咨询流程的关键词（子串匹配，忽略大小写）。
var projectKeywords = []string{"project", "hire", "work", "build", "develop", "create", "quote", "price"}

const retryPrefix = "Hmm, that doesn't look right. "

type leadStep struct {
	key    string
	prompt string
	valid  func(string) bool
	set    func(*model.Lead, string)
	get    func(model.Lead) string
}

var leadSteps = [LeadSteps]leadStep{
	{
		key:    "name",
		prompt: "Great! Let's get started. What's your name?",
		valid:  ValidName,
		set:    func(l *model.Lead, v string) { l.Name = v },
		get:    func(l model.Lead) string { return l.Name },
	},
	{
		key:    "email",
		prompt: "Nice to meet you! What's your email address?",
		valid:  ValidEmail,
		set:    func(l *model.Lead, v string) { l.Email = v },
		get:    func(l model.Lead) string { return l.Email },
	},
	{
		key:    "whatsapp",
		prompt: "Perfect! What's your WhatsApp number? (Include country code)",
		valid:  ValidWhatsApp,
		set:    func(l *model.Lead, v string) { l.WhatsApp = v },
		get:    func(l model.Lead) string { return l.WhatsApp },
	},
	{
		key:    "requirements",
		prompt: "Tell me about your project. What are you looking to build?",
		valid:  ValidRequirements,
		set:    func(l *model.Lead, v string) { l.Requirements = v },
		get:    func(l model.Lead) string { return l.Requirements },
	},
	{
		key:    "budget",
		prompt: "What's your estimated budget range? (e.g., $5000-$10000, or 'Open to discuss')",
		valid:  validShort,
		set:    func(l *model.Lead, v string) { l.Budget = v },
		get:    func(l model.Lead) string { return l.Budget },
	},
	{
		key:    "timeline",
		prompt: "When would you like the project completed? (e.g., '2 months', 'ASAP', 'Flexible')",
		valid:  validShort,
		set:    func(l *model.Lead, v string) { l.Timeline = v },
		get:    func(l model.Lead) string { return l.Timeline },
	},
	{
		key:    "meetingPreference",
		prompt: "Would you like to schedule a meeting? (Yes/No)",
		valid:  ValidMeetingPreference,
		set:    func(l *model.Lead, v string) { l.MeetingPreference = v },
		get:    func(l model.Lead) string { return l.MeetingPreference },
	},
}

// Prompt 返回第 step 步 (1..7) 的问题。
func Prompt(step int) string {
	return leadSteps[step-1].prompt
}

func length(s string) int { return utf8.RuneCountInString(s) }

// ValidName 要求名字至少两个字符。
func ValidName(s string) bool { return length(s) > 1 }

// ValidEmail 做最基本的邮箱格式检查。
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// ValidWhatsApp 去掉空格、短横线和加号后要求 8 到 15 位数字。
func ValidWhatsApp(s string) bool {
	return phoneRe.MatchString(phoneStrip.ReplaceAllString(s, ""))
}

// ValidRequirements 要求项目描述超过 10 个字符。
func ValidRequirements(s string) bool { return length(s) > 10 }

func validShort(s string) bool { return length(s) > 2 }

// ValidMeetingPreference 只要求非空。
func ValidMeetingPreference(s string) bool { return length(s) > 0 }

// ValidateLead 依次校验七个字段，返回第一个不合法字段的 ValidationError。
func ValidateLead(l model.Lead) error {
	for _, s := range leadSteps {
		if !s.valid(strings.TrimSpace(s.get(l))) {
			return &model.ValidationError{Field: s.key, Message: fmt.Sprintf("invalid %s", s.key)}
		}
	}
	return nil
}

// DetectProjectIntent 判断消息是否包含项目相关的关键词。
func DetectProjectIntent(msg string) bool {
	lower := strings.ToLower(msg)
	for _, k := range projectKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Excerpt 截取需求描述的前 100 个字符，超出时追加省略号。
func Excerpt(s string) string {
	const limit = 100
	if length(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// WantsMeeting 判断访客是否希望安排会议。
func WantsMeeting(pref string) bool {
	return strings.Contains(strings.ToLower(pref), "yes")
}
