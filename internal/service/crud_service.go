// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/internal/repository"
)

// CRUDService 是后台内容管理的服务端部分。
type CRUDService interface {
	List(ctx context.Context, t content.Table) ([]model.Record, error)
	Create(ctx context.Context, t content.Table, payload model.Record) (model.Record, error)
	Update(ctx context.Context, t content.Table, id uint, payload model.Record) (model.Record, error)
	Delete(ctx context.Context, t content.Table, id uint) error
}

type crudService struct {
	repo repository.ContentRepository
}

// NewCRUDService 创建一个新的 CRUDService 实例。
func NewCRUDService(repo repository.ContentRepository) CRUDService {
	return &crudService{repo: repo}
}

func (s *crudService) List(ctx context.Context, t content.Table) ([]model.Record, error) {
	rows, err := s.repo.List(ctx, t)
	if err != nil {
		return nil, err
	}
	if content.Get(t).Singleton && len(rows) > 1 {
		rows = rows[:1]
	}
	return rows, nil
}

func (s *crudService) Create(ctx context.Context, t content.Table, payload model.Record) (model.Record, error) {
	e := content.Get(t)
	if e.AppendOnly {
		return nil, &model.ValidationError{Message: fmt.Sprintf("%s is append-only", t)}
	}
	row := content.StripServerFields(payload)
	if len(row) == 0 {
		return nil, &model.ValidationError{Message: "Request body is required"}
	}
	if err := e.Validate(ctx, row, false); err != nil {
		return nil, err
	}
	if e.Singleton {
		n, err := s.repo.Count(ctx, t)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, &model.ValidationError{Message: fmt.Sprintf("%s already exists, update it instead", t)}
		}
	}
	// 未提交的字段使用表的默认值
	for k, v := range e.EmptyRow() {
		if _, ok := row[k]; !ok {
			row[k] = v
		}
	}
	return s.repo.Insert(ctx, t, row)
}

func (s *crudService) Update(ctx context.Context, t content.Table, id uint, payload model.Record) (model.Record, error) {
	e := content.Get(t)
	if id == 0 {
		return nil, &model.ValidationError{Field: "id", Message: "ID is required for update"}
	}
	if e.AppendOnly {
		return nil, &model.ValidationError{Message: fmt.Sprintf("%s is append-only", t)}
	}
	fields := content.StripServerFields(payload)
	if len(fields) == 0 {
		return nil, &model.ValidationError{Message: "Request body is required"}
	}
	if err := e.Validate(ctx, fields, true); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, t, id, fields)
}

func (s *crudService) Delete(ctx context.Context, t content.Table, id uint) error {
	if id == 0 {
		return &model.ValidationError{Field: "id", Message: "ID is required for delete"}
	}
	return s.repo.Delete(ctx, t, id)
}
