// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
)

// ContentRepository 是七张内容表的通用读写接口。
type ContentRepository interface {
	List(ctx context.Context, t content.Table) ([]model.Record, error)
	Get(ctx context.Context, t content.Table, id uint) (model.Record, error)
	Count(ctx context.Context, t content.Table) (int64, error)
	// CountWhere 按列等值条件计数，where 的键是列名。
	CountWhere(ctx context.Context, t content.Table, where model.Record) (int64, error)
	Insert(ctx context.Context, t content.Table, row model.Record) (model.Record, error)
	Update(ctx context.Context, t content.Table, id uint, fields model.Record) (model.Record, error)
	Delete(ctx context.Context, t content.Table, id uint) error
}

// contentRepository 是 ContentRepository 接口的 GORM 实现。
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository 创建一个新的 ContentRepository 实例。db 为 nil 时所有操作返回 ErrStoreUnavailable。
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// AutoMigrate 创建或更新所有内容表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.About{},
		&model.Skill{},
		&model.Project{},
		&model.Experience{},
		&model.Certification{},
		&model.Message{},
		&model.ChatbotLog{},
	)
}

func (r *contentRepository) conn(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, model.ErrStoreUnavailable
	}
	return r.db.WithContext(ctx), nil
}

// List 按表定义的顺序返回所有行。
func (r *contentRepository) List(ctx context.Context, t content.Table) ([]model.Record, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	e := content.Get(t)
	rows := e.NewRows()
	if err := db.Order(e.OrderBy).Find(rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t, err)
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	out := []model.Record{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get 根据 id 返回一行。
func (r *contentRepository) Get(ctx context.Context, t content.Table, id uint) (model.Record, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := r.first(db, t, id)
	if err != nil {
		return nil, err
	}
	return model.ToRecord(obj)
}

func (r *contentRepository) first(db *gorm.DB, t content.Table, id uint) (any, error) {
	obj := content.Get(t).NewRow()
	if err := db.First(obj, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s #%d: %w", t, id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s #%d: %w", t, id, err)
	}
	return obj, nil
}

// Count 返回表中的行数。
func (r *contentRepository) Count(ctx context.Context, t content.Table) (int64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(content.Get(t).NewRow()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", t, err)
	}
	return n, nil
}

func (r *contentRepository) CountWhere(ctx context.Context, t content.Table, where model.Record) (int64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(content.Get(t).NewRow()).Where(map[string]interface{}(where)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", t, err)
	}
	return n, nil
}

// Insert 插入一行并返回带有 id 和时间戳的完整记录。
func (r *contentRepository) Insert(ctx context.Context, t content.Table, row model.Record) (model.Record, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	obj := content.Get(t).NewRow()
	if err := model.DecodeRecord(row, obj); err != nil {
		return nil, err
	}
	if err := db.Create(obj).Error; err != nil {
		return nil, fmt.Errorf("insert %s: %w", t, err)
	}
	return model.ToRecord(obj)
}

// Update 把 fields 合并到已有行上并保存。
func (r *contentRepository) Update(ctx context.Context, t content.Table, id uint, fields model.Record) (model.Record, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := r.first(db, t, id)
	if err != nil {
		return nil, err
	}
	if err := model.DecodeRecord(fields, obj); err != nil {
		return nil, err
	}
	if err := db.Save(obj).Error; err != nil {
		return nil, fmt.Errorf("update %s #%d: %w", t, id, err)
	}
	return model.ToRecord(obj)
}

// Delete 删除一行，行不存在时返回 ErrNotFound。
func (r *contentRepository) Delete(ctx context.Context, t content.Table, id uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(content.Get(t).NewRow(), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s #%d: %w", t, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s #%d: %w", t, id, model.ErrNotFound)
	}
	return nil
}
