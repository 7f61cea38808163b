package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record 是一行内容数据的通用表示，键为 JSON 字段名。
type Record map[string]any

// ID 返回记录的 id，缺失或无法解析时返回 0。
func (r Record) ID() uint {
	switch v := r["id"].(type) {
	case float64:
		return uint(v)
	case int:
		return uint(v)
	case uint:
		return v
	case json.Number:
		n, _ := strconv.ParseUint(v.String(), 10, 64)
		return uint(n)
	case string:
		n, _ := strconv.ParseUint(v, 10, 64)
		return uint(n)
	}
	return 0
}

// Clone 返回记录的浅拷贝。
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToRecord 通过 JSON 往返把结构体转换成 Record，数字统一为 float64。
func ToRecord(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeRecord 把 Record 中的字段写入 dst 指向的结构体。
func DecodeRecord(r Record, dst any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid payload: %v", err)}
	}
	return nil
}
