// Package dashboard 实现后台内容管理的客户端引擎：每个打开的表对应一个 Manager，
// 负责列表、草稿、编辑缓冲区和操作提示，所有写入通过 Gateway 发往服务端。
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/pkg/log"
)

// NoticeTTL 是操作提示的展示时长。
const NoticeTTL = 3 * time.Second

// Gateway 是内容存储的远端接口。
type Gateway interface {
	List(ctx context.Context, t content.Table) ([]model.Record, error)
	Create(ctx context.Context, t content.Table, row model.Record) (model.Record, error)
	Update(ctx context.Context, t content.Table, id uint, fields model.Record) (model.Record, error)
	Delete(ctx context.Context, t content.Table, id uint) error
}

// Confirmer 在执行不可逆操作前征求操作者确认。
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc 让普通函数满足 Confirmer。
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// NoticeKind 区分成功和失败提示。
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice 是一条短暂展示的操作提示。
type Notice struct {
	Kind      NoticeKind
	Text      string
	ExpiresAt time.Time
}

// Detail 是详情面板中的一行。
type Detail struct {
	Label string
	Value string
}

// Manager 管理一张表在后台中的全部状态。方法可以并发调用。
type Manager struct {
	entity  content.Entity
	gateway Gateway
	confirm Confirmer
	now     func() time.Time

	mu       sync.Mutex
	rows     []model.Record
	draft    model.Record
	editID   uint
	edit     model.Record
	expanded uint
	notice   *Notice
}

// NewManager 为表 t 创建一个 Manager。confirm 为 nil 时删除操作一律被拒绝。
func NewManager(t content.Table, gateway Gateway, confirm Confirmer) *Manager {
	e := content.Get(t)
	return &Manager{
		entity:  e,
		gateway: gateway,
		confirm: confirm,
		now:     time.Now,
		draft:   e.EmptyRow(),
	}
}

// Entity 返回表的字段描述。
func (m *Manager) Entity() content.Entity { return m.entity }

// Rows 返回当前列表的拷贝。
func (m *Manager) Rows() []model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Record, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Clone()
	}
	return out
}

// Notice 返回尚未过期的提示。
func (m *Manager) Notice() (Notice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notice == nil || !m.now().Before(m.notice.ExpiresAt) {
		m.notice = nil
		return Notice{}, false
	}
	return *m.notice, true
}

func (m *Manager) setNotice(kind NoticeKind, text string) {
	m.notice = &Notice{Kind: kind, Text: text, ExpiresAt: m.now().Add(NoticeTTL)}
}

// fail 记录失败提示并原样返回错误，提示文本即错误文本。
func (m *Manager) fail(op string, err error) error {
	m.setNotice(NoticeError, err.Error())
	log.Warnw("后台操作失败", "table", m.entity.Table, "op", op, "error", err)
	return err
}

func (m *Manager) indexOf(id uint) int {
	for i, r := range m.rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

// Refresh 从服务端重新拉取整张表。失败时列表保持不变。
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refresh(ctx); err != nil {
		return m.fail("list", err)
	}
	return nil
}

func (m *Manager) refresh(ctx context.Context) error {
	rows, err := m.gateway.List(ctx, m.entity.Table)
	if err != nil {
		return err
	}
	m.rows = rows
	return nil
}

// refreshAfterWrite 在写入后重新拉取。写入本身已经成功，拉取失败只记录日志。
func (m *Manager) refreshAfterWrite(ctx context.Context) {
	if err := m.refresh(ctx); err != nil {
		log.Warnw("写入后刷新列表失败", "table", m.entity.Table, "error", err)
	}
}

// Summary 返回行摘要：前两个字段的展示文本。
func (m *Manager) Summary(row model.Record) []string {
	n := len(m.entity.Fields)
	if n > 2 {
		n = 2
	}
	out := make([]string, 0, n)
	for _, f := range m.entity.Fields[:n] {
		out = append(out, content.Format(f, row[f.Key]))
	}
	return out
}

// Details 返回其余非空字段的展示文本。
func (m *Manager) Details(row model.Record) []Detail {
	var out []Detail
	for i, f := range m.entity.Fields {
		if i < 2 || content.IsEmpty(f, row[f.Key]) {
			continue
		}
		out = append(out, Detail{Label: f.Label, Value: content.Format(f, row[f.Key])})
	}
	return out
}

// Toggle 展开或收起一行的详情，返回操作后是否处于展开状态。
func (m *Manager) Toggle(id uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expanded == id {
		m.expanded = 0
		return false
	}
	m.expanded = id
	return true
}

// Expanded 返回当前展开的行 id，0 表示没有。
func (m *Manager) Expanded() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expanded
}

func (m *Manager) parse(key, raw string) (content.Field, any, error) {
	f, ok := m.entity.Field(key)
	if !ok {
		return f, nil, &model.ValidationError{Field: key, Message: fmt.Sprintf("unknown field %q for %s", key, m.entity.Table)}
	}
	return f, content.ParseInput(f, raw), nil
}

// Draft 返回新增表单的拷贝。
func (m *Manager) Draft() model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.Clone()
}

// SetDraft 按字段类型解析 raw 并写入新增表单。
func (m *Manager) SetDraft(key, raw string) error {
	_, v, err := m.parse(key, raw)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.draft[key] = v
	m.mu.Unlock()
	return nil
}

// Create 提交新增表单。必填字段为空时不访问服务端，列表不变。
func (m *Manager) Create(ctx context.Context) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := content.StripServerFields(m.draft)
	if err := m.entity.CheckRequired(row); err != nil {
		return nil, m.fail("create", err)
	}
	created, err := m.gateway.Create(ctx, m.entity.Table, row)
	if err != nil {
		return nil, m.fail("create", err)
	}
	m.rows = append(m.rows, created)
	m.draft = m.entity.EmptyRow()
	m.setNotice(NoticeSuccess, "Added successfully!")
	m.refreshAfterWrite(ctx)
	return created, nil
}

// BeginEdit 把一行载入编辑缓冲区，日期字段截断为 YYYY-MM-DD。
func (m *Manager) BeginEdit(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("edit %s %d: %w", m.entity.Table, id, model.ErrNotFound)
	}
	buf := m.rows[i].Clone()
	for _, f := range m.entity.Fields {
		if v, ok := buf[f.Key]; ok {
			buf[f.Key] = content.EditValue(f, v)
		}
	}
	m.editID = id
	m.edit = buf
	return nil
}

// Editing 返回正在编辑的行 id，0 表示不在编辑模式。
func (m *Manager) Editing() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editID
}

// EditBuffer 返回编辑缓冲区的拷贝。
func (m *Manager) EditBuffer() model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edit.Clone()
}

// SetEdit 修改编辑缓冲区中的一个字段。
func (m *Manager) SetEdit(key, raw string) error {
	_, v, err := m.parse(key, raw)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editID == 0 {
		return &model.ValidationError{Message: "not editing"}
	}
	m.edit[key] = v
	return nil
}

// CancelEdit 丢弃编辑缓冲区，不访问服务端。
func (m *Manager) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editID = 0
	m.edit = nil
}

// SaveEdit 提交编辑缓冲区，成功后退出编辑模式。
func (m *Manager) SaveEdit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editID == 0 {
		return &model.ValidationError{Message: "not editing"}
	}
	if err := m.applyFieldChange(ctx, m.editID, m.edit, false); err != nil {
		return err
	}
	m.editID = 0
	m.edit = nil
	return nil
}

// ApplyFieldChange 是所有更新的统一入口。optimistic 为 true 时先修改内存中的行，
// 服务端失败后恢复原来的行，再重新拉取。
func (m *Manager) ApplyFieldChange(ctx context.Context, id uint, fields model.Record, optimistic bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyFieldChange(ctx, id, fields, optimistic)
}

func (m *Manager) applyFieldChange(ctx context.Context, id uint, fields model.Record, optimistic bool) error {
	payload := content.StripServerFields(fields)
	if len(payload) == 0 {
		return m.fail("update", &model.ValidationError{Message: "nothing to update"})
	}

	var original model.Record
	if optimistic {
		if i := m.indexOf(id); i >= 0 {
			original = m.rows[i]
			row := original.Clone()
			for k, v := range payload {
				row[k] = v
			}
			m.rows[i] = row
		}
	}

	updated, err := m.gateway.Update(ctx, m.entity.Table, id, payload)
	if err != nil {
		if original != nil {
			if i := m.indexOf(id); i >= 0 {
				m.rows[i] = original
			}
		}
		if optimistic || errors.Is(err, model.ErrNotFound) {
			m.refreshAfterWrite(ctx)
		}
		return m.fail("update", err)
	}
	if i := m.indexOf(id); i >= 0 {
		m.rows[i] = updated
	}
	m.setNotice(NoticeSuccess, "Updated successfully!")
	m.refreshAfterWrite(ctx)
	return nil
}

// SetSkillLevel 立即应用技能熟练度，不经过编辑缓冲区。
func (m *Manager) SetSkillLevel(ctx context.Context, id uint, level int) error {
	if m.entity.Table != content.Skills {
		return &model.ValidationError{Message: fmt.Sprintf("%s has no level", m.entity.Table)}
	}
	f, _ := m.entity.Field("level")
	if level < f.Min || level > f.Max {
		return &model.ValidationError{Field: "level", Message: fmt.Sprintf("level must be between %d and %d", f.Min, f.Max)}
	}
	return m.ApplyFieldChange(ctx, id, model.Record{"level": level}, true)
}

// Delete 在确认后删除一行。未确认时返回 false，不访问服务端。
func (m *Manager) Delete(ctx context.Context, id uint) (bool, error) {
	prompt := "Delete this entry?"
	m.mu.Lock()
	if i := m.indexOf(id); i >= 0 {
		if title := m.Summary(m.rows[i]); len(title) > 0 && title[0] != "" {
			prompt = fmt.Sprintf("Delete %q?", title[0])
		}
	}
	m.mu.Unlock()
	if m.confirm == nil || !m.confirm.Confirm(ctx, prompt) {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gateway.Delete(ctx, m.entity.Table, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			m.refreshAfterWrite(ctx)
		}
		return false, m.fail("delete", err)
	}
	if i := m.indexOf(id); i >= 0 {
		m.rows = append(m.rows[:i:i], m.rows[i+1:]...)
	}
	if m.editID == id {
		m.editID = 0
		m.edit = nil
	}
	m.setNotice(NoticeSuccess, "Deleted successfully!")
	m.refreshAfterWrite(ctx)
	return true, nil
}
