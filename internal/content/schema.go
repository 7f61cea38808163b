package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"

	"portfolio-go/internal/model"
)

type schemaKey struct {
	table   Table
	partial bool
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[schemaKey]*jsonschema.Schema{}
)

// SchemaJSON 生成描述该表写入载荷的 JSON Schema。
// partial 为 true 时用于更新，不要求必填字段出现。
func (e Entity) SchemaJSON(partial bool) []byte {
	props := make(map[string]any, len(e.Fields))
	var req []string
	for _, f := range e.Fields {
		props[f.Key] = fieldSchema(f)
		if f.Required && !partial {
			req = append(req, f.Key)
		}
	}
	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"title":      string(e.Table),
		"type":       "object",
		"properties": props,
	}
	if len(req) > 0 {
		doc["required"] = req
	}
	b, _ := json.Marshal(doc)
	return b
}

func fieldSchema(f Field) map[string]any {
	s := map[string]any{}
	switch f.Kind {
	case KindNumber:
		s["type"] = "integer"
		if f.Bounded {
			s["minimum"] = f.Min
			s["maximum"] = f.Max
		}
	case KindBoolean:
		s["type"] = "boolean"
	case KindTags:
		s["type"] = "array"
		s["items"] = map[string]any{"type": "string"}
	default:
		if f.Required {
			s["type"] = "string"
			s["minLength"] = 1
		} else {
			s["type"] = []string{"string", "null"}
		}
	}
	return s
}

func (e Entity) schema(partial bool) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	key := schemaKey{e.Table, partial}
	if rs, ok := schemaCache[key]; ok {
		return rs, nil
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(e.SchemaJSON(partial), rs); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", e.Table, err)
	}
	schemaCache[key] = rs
	return rs, nil
}

// Validate 校验写入载荷：先检查必填字段，再用 JSON Schema 检查类型和范围。
// 返回第一个字段错误。
func (e Entity) Validate(ctx context.Context, row model.Record, partial bool) error {
	if partial {
		if err := e.checkPresentRequired(row); err != nil {
			return err
		}
	} else if err := e.CheckRequired(row); err != nil {
		return err
	}

	rs, err := e.schema(partial)
	if err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return &model.ValidationError{Message: fmt.Sprintf("invalid payload: %v", err)}
	}
	keyErrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return fmt.Errorf("validate %s: %w", e.Table, err)
	}
	if len(keyErrs) == 0 {
		return nil
	}
	ke := keyErrs[0]
	return &model.ValidationError{Field: strings.TrimPrefix(ke.PropertyPath, "/"), Message: ke.Message}
}

// checkPresentRequired 在更新时只检查载荷中出现的必填字段。
func (e Entity) checkPresentRequired(row model.Record) error {
	present := make(model.Record)
	for _, f := range e.Fields {
		if v, ok := row[f.Key]; ok && f.Required {
			present[f.Key] = v
		} else if f.Required {
			present[f.Key] = "-"
		}
	}
	return e.CheckRequired(present)
}
