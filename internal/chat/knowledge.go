package chat

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Knowledge 是普通模式下按类别给出的固定回复。
type Knowledge struct {
	Greetings    []string
	Skills       string
	Projects     string
	Experience   string
	Education    string
	Contact      string
	Availability string
	TechStack    string
	Thanks       string
	Goodbye      string
	Fallback     []string
}

// DefaultKnowledge 返回以 owner 为主角的默认回复。
func DefaultKnowledge(owner string) Knowledge {
	return Knowledge{
		Greetings: []string{
			fmt.Sprintf("Hey there! 👋 I'm %s's assistant. I can help you learn about %s's work or start a project discussion!", owner, owner),
			fmt.Sprintf("Hello! Welcome to %s's portfolio. What can I help you with?", owner),
			"Hi! Ask me about projects, skills, or type 'hire' to start a project discussion!",
		},
		Skills:       fmt.Sprintf("%s works across backend, frontend and tooling. The Skills section lists every technology with its proficiency level.", owner),
		Projects:     fmt.Sprintf("%s has shipped a range of projects, from SaaS platforms to recommendation engines. Check the Projects section for details!", owner),
		Experience:   fmt.Sprintf("The Experience section covers %s's roles, internships and freelance work.", owner),
		Education:    fmt.Sprintf("You can find %s's education and certifications in the About and Certifications sections.", owner),
		Contact:      fmt.Sprintf("You can reach %s via the contact form or WhatsApp. Type 'project' to start a project discussion right here!", owner),
		Availability: fmt.Sprintf("%s is open to exciting projects. Type 'hire' or 'project' to start a discussion!", owner),
		TechStack:    "This portfolio runs on a Go backend with a dynamic content store and a fully editable admin panel.",
		Thanks:       "You're welcome! 😊 Let me know if there's anything else I can help with.",
		Goodbye:      "Goodbye! 👋 Feel free to come back anytime. Have a great day!",
		Fallback: []string{
			"Interesting question! You can ask about skills, projects, experience, or type 'hire' to start a project discussion.",
			fmt.Sprintf("I'm not sure about that. Try asking about %s's skills, projects, or education. Or use the contact form to reach out!", owner),
			"Great question! For a detailed discussion, type 'project' to start a project inquiry.",
		},
	}
}

// Override 用 o 中的非空值覆盖 k。
func (k Knowledge) Override(o Knowledge) Knowledge {
	pick := func(def, v string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return def
	}
	if len(o.Greetings) > 0 {
		k.Greetings = o.Greetings
	}
	if len(o.Fallback) > 0 {
		k.Fallback = o.Fallback
	}
	k.Skills = pick(k.Skills, o.Skills)
	k.Projects = pick(k.Projects, o.Projects)
	k.Experience = pick(k.Experience, o.Experience)
	k.Education = pick(k.Education, o.Education)
	k.Contact = pick(k.Contact, o.Contact)
	k.Availability = pick(k.Availability, o.Availability)
	k.TechStack = pick(k.TechStack, o.TechStack)
	k.Thanks = pick(k.Thanks, o.Thanks)
	k.Goodbye = pick(k.Goodbye, o.Goodbye)
	return k
}

// Category 是匹配到的问题类别。
type Category string

const (
	CategoryGreeting     Category = "greeting"
	CategorySkills       Category = "skills"
	CategoryProjects     Category = "projects"
	CategoryExperience   Category = "experience"
	CategoryEducation    Category = "education"
	CategoryContact      Category = "contact"
	CategoryAvailability Category = "availability"
	CategoryTechStack    Category = "tech_stack"
	CategoryThanks       Category = "thanks"
	CategoryGoodbye      Category = "goodbye"
	CategoryFallback     Category = "fallback"
)

// 按顺序匹配，第一个命中的类别生效。
var categories = []struct {
	cat Category
	re  *regexp.Regexp
}{
	{CategoryGreeting, regexp.MustCompile(`(?i)^(hi|hello|hey|howdy|greetings|sup|what'?s up)`)},
	{CategorySkills, regexp.MustCompile(`(?i)skill|tech|language|framework|tool|stack|proficien|know`)},
	{CategoryProjects, regexp.MustCompile(`(?i)project|work|portfolio|build|built|creat`)},
	{CategoryExperience, regexp.MustCompile(`(?i)experience|job|career|company|work history|resume|cv`)},
	{CategoryEducation, regexp.MustCompile(`(?i)education|university|college|degree|study|student|fast|nuces|academic`)},
	{CategoryContact, regexp.MustCompile(`(?i)contact|reach|email|phone|call|message|connect`)},
	{CategoryAvailability, regexp.MustCompile(`(?i)hire|available|freelance|open|opportunity|position|project|work together|collaborate`)},
	{CategoryTechStack, regexp.MustCompile(`(?i)this (site|portfolio|website)|how.*built|tech.*stack.*portfolio`)},
	{CategoryThanks, regexp.MustCompile(`(?i)thank|thanks|thx`)},
	{CategoryGoodbye, regexp.MustCompile(`(?i)bye|goodbye|see you|later`)},
}

// Classify 返回消息所属的类别。
func Classify(msg string) Category {
	m := strings.ToLower(strings.TrimSpace(msg))
	for _, c := range categories {
		if c.re.MatchString(m) {
			return c.cat
		}
	}
	return CategoryFallback
}

// KnowledgeBase 是基于正则匹配的 Responder。
type KnowledgeBase struct {
	k Knowledge

	mu   sync.Mutex
	rand *rand.Rand
}

// NewKnowledgeBase 创建知识库。seed 为 0 时使用当前时间。
func NewKnowledgeBase(k Knowledge, seed int64) *KnowledgeBase {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &KnowledgeBase{k: k, rand: rand.New(rand.NewSource(seed))}
}

func (kb *KnowledgeBase) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return options[kb.rand.Intn(len(options))]
}

// Answer 返回消息的回复文本。
func (kb *KnowledgeBase) Answer(msg string) string {
	switch Classify(msg) {
	case CategoryGreeting:
		return kb.pick(kb.k.Greetings)
	case CategorySkills:
		return kb.k.Skills
	case CategoryProjects:
		return kb.k.Projects
	case CategoryExperience:
		return kb.k.Experience
	case CategoryEducation:
		return kb.k.Education
	case CategoryContact:
		return kb.k.Contact
	case CategoryAvailability:
		return kb.k.Availability
	case CategoryTechStack:
		return kb.k.TechStack
	case CategoryThanks:
		return kb.k.Thanks
	case CategoryGoodbye:
		return kb.k.Goodbye
	}
	return kb.pick(kb.k.Fallback)
}

// Respond 实现 Responder。
func (kb *KnowledgeBase) Respond(_ context.Context, _ string, message string) (string, error) {
	return kb.Answer(message), nil
}

// Greetings 返回所有问候语，便于调用方判断随机结果。
func (kb *KnowledgeBase) Greetings() []string { return kb.k.Greetings }

// Fallbacks 返回所有兜底回复。
func (kb *KnowledgeBase) Fallbacks() []string { return kb.k.Fallback }
