// Package content 描述站点的七张内容表：字段、排序、默认行和校验规则。
// 表集合在编译期固定，字符串只在 HTTP 边界通过 Lookup 转换一次。
package content

import (
	"fmt"

	"portfolio-go/internal/model"
)

// Table 是内容表的标识。
type Table string

const (
	About          Table = "about"
	Skills         Table = "skills"
	Projects       Table = "projects"
	Experience     Table = "experience"
	Certifications Table = "certifications"
	Messages       Table = "messages"
	ChatbotLogs    Table = "chatbot_logs"
)

// Kind 决定字段的输入方式和展示方式。
type Kind string

const (
	KindText      Kind = "text"
	KindMultiline Kind = "multiline"
	KindNumber    Kind = "number"
	KindBoolean   Kind = "boolean"
	KindTags      Kind = "tags"
	KindDate      Kind = "date"
	KindEnum      Kind = "enum"
)

// Field 描述表中的一个可编辑字段。
type Field struct {
	Key         string
	Label       string
	Kind        Kind
	Options     []string
	Required    bool
	Bounded     bool
	Min, Max    int
	Nullable    bool
	Placeholder string
}

// Entity 是一张表的完整描述。
type Entity struct {
	Table  Table
	Label  string
	Fields []Field
	// Singleton 表至多一行 (about)。
	Singleton bool
	// AppendOnly 表只能由访客写入，后台只读可删。
	AppendOnly bool
	// OrderBy 是列表查询使用的排序子句。
	OrderBy  string
	defaults model.Record
	newRow   func() any
	newRows  func() any
}

// SkillCategories 是技能分类的约定取值，不做强制校验。
var SkillCategories = []string{"Core", "AI & ML", "Backend", "Frontend", "Tools", "Leadership"}

const (
	orderAsc    = "sort_order asc, id asc"
	createdDesc = "created_at desc, id desc"
)

func text(key, label string) Field { return Field{Key: key, Label: label, Kind: KindText} }

func multiline(key, label string) Field {
	return Field{Key: key, Label: label, Kind: KindMultiline}
}

func required(f Field) Field {
	f.Required = true
	return f
}

func number(key, label string) Field { return Field{Key: key, Label: label, Kind: KindNumber} }

func boolean(key, label string) Field { return Field{Key: key, Label: label, Kind: KindBoolean} }

var registry = map[Table]Entity{
	About: {
		Table: About, Label: "About", Singleton: true, OrderBy: "id asc",
		Fields: []Field{
			required(text("name", "Name")),
			text("title", "Title"),
			text("tagline", "Tagline"),
			multiline("bio", "Bio"),
			{Key: "photo_url", Label: "Photo URL", Kind: KindText, Placeholder: "/assets/profile.jpg"},
			{Key: "resume_url", Label: "Resume URL", Kind: KindText, Placeholder: "/assets/resume.pdf"},
		},
		newRow:  func() any { return &model.About{} },
		newRows: func() any { return &[]model.About{} },
	},
	Skills: {
		Table: Skills, Label: "Skills", OrderBy: orderAsc,
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: KindText, Required: true, Placeholder: "e.g. Go"},
			{Key: "category", Label: "Category", Kind: KindEnum, Options: SkillCategories},
			{Key: "level", Label: "Level", Kind: KindNumber, Bounded: true, Min: 0, Max: 100},
			number("order", "Order"),
		},
		defaults: model.Record{"category": "Core", "level": 50},
		newRow:   func() any { return &model.Skill{} },
		newRows:  func() any { return &[]model.Skill{} },
	},
	Projects: {
		Table: Projects, Label: "Projects", OrderBy: orderAsc,
		Fields: []Field{
			required(text("title", "Title")),
			multiline("description", "Description"),
			text("image_url", "Image URL"),
			text("live_url", "Live URL"),
			text("github_url", "GitHub URL"),
			{Key: "technologies", Label: "Technologies", Kind: KindTags, Placeholder: "Go, PostgreSQL, Redis"},
			boolean("featured", "Featured"),
			multiline("impact", "Impact"),
			multiline("learnings", "Learnings"),
			number("order", "Order"),
		},
		newRow:  func() any { return &model.Project{} },
		newRows: func() any { return &[]model.Project{} },
	},
	Experience: {
		Table: Experience, Label: "Experience", OrderBy: orderAsc,
		Fields: []Field{
			required(text("title", "Title")),
			text("company", "Company"),
			multiline("description", "Description"),
			{Key: "start_date", Label: "Start Date", Kind: KindDate},
			{Key: "end_date", Label: "End Date", Kind: KindDate, Nullable: true},
			boolean("current", "Current"),
			number("order", "Order"),
		},
		newRow:  func() any { return &model.Experience{} },
		newRows: func() any { return &[]model.Experience{} },
	},
	Certifications: {
		Table: Certifications, Label: "Certifications", OrderBy: orderAsc,
		Fields: []Field{
			required(text("title", "Title")),
			text("issuer", "Issuer"),
			{Key: "date", Label: "Date", Kind: KindText, Placeholder: "2026"},
			text("url", "URL"),
			text("badge", "Badge"),
			number("order", "Order"),
		},
		newRow:  func() any { return &model.Certification{} },
		newRows: func() any { return &[]model.Certification{} },
	},
	Messages: {
		Table: Messages, Label: "Messages", AppendOnly: true, OrderBy: createdDesc,
		Fields: []Field{
			required(text("name", "Name")),
			required(text("email", "Email")),
			text("subject", "Subject"),
			required(multiline("message", "Message")),
			boolean("read", "Read"),
		},
		newRow:  func() any { return &model.Message{} },
		newRows: func() any { return &[]model.Message{} },
	},
	ChatbotLogs: {
		Table: ChatbotLogs, Label: "Chatbot Logs", AppendOnly: true, OrderBy: createdDesc,
		Fields: []Field{
			text("session_id", "Session"),
			multiline("user_message", "User Message"),
			multiline("bot_response", "Bot Response"),
		},
		newRow:  func() any { return &model.ChatbotLog{} },
		newRows: func() any { return &[]model.ChatbotLog{} },
	},
}

// tables 固定了表的展示顺序。
var tables = []Table{About, Skills, Projects, Experience, Certifications, Messages, ChatbotLogs}

// Tables 返回所有内容表，按后台标签页顺序排列。
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// Lookup 把外部传入的表名转换成 Table。
func Lookup(name string) (Table, bool) {
	_, ok := registry[Table(name)]
	return Table(name), ok
}

// Get 返回表的描述。t 必须来自本包常量或 Lookup。
func Get(t Table) Entity {
	e, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("content: unknown table %q", t))
	}
	return e
}

// Field 按 key 查找字段。
func (e Entity) Field(key string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// NewRow 返回该表对应的 gorm 模型指针。
func (e Entity) NewRow() any { return e.newRow() }

// NewRows 返回该表对应的 gorm 模型切片指针。
func (e Entity) NewRows() any { return e.newRows() }

// EmptyRow 返回新增表单的初始值。
func (e Entity) EmptyRow() model.Record {
	row := make(model.Record, len(e.Fields))
	for _, f := range e.Fields {
		row[f.Key] = zeroValue(f)
	}
	for k, v := range e.defaults {
		row[k] = v
	}
	return row
}

func zeroValue(f Field) any {
	switch f.Kind {
	case KindNumber:
		return 0
	case KindBoolean:
		return false
	case KindTags:
		return []string{}
	case KindDate:
		if f.Nullable {
			return nil
		}
		return ""
	default:
		return ""
	}
}

// CheckRequired 校验必填的文本字段非空。
func (e Entity) CheckRequired(row model.Record) error {
	for _, f := range e.Fields {
		if !f.Required {
			continue
		}
		s, _ := row[f.Key].(string)
		if isBlank(s) {
			return &model.ValidationError{Field: f.Key, Message: fmt.Sprintf("%s is required", f.Label)}
		}
	}
	return nil
}

// serverManaged 是由存储分配、客户端不能写入的字段。
var serverManaged = []string{"id", "created_at", "updated_at"}

// StripServerFields 返回去掉 id 和时间戳后的载荷拷贝，不修改入参。
func StripServerFields(payload model.Record) model.Record {
	out := payload.Clone()
	for _, k := range serverManaged {
		delete(out, k)
	}
	return out
}
