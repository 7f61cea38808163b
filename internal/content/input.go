package content

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// ParseInput 把表单里输入的原始字符串转换成字段值。
//   - tags: 逗号分隔，去掉空白和空项，保持顺序
//   - number: 无法解析时为 0
//   - boolean: true/false/yes/no/1/0/on/off
func ParseInput(f Field, raw string) any {
	switch f.Kind {
	case KindTags:
		return SplitTags(raw)
	case KindNumber:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			if fl, ferr := strconv.ParseFloat(strings.TrimSpace(raw), 64); ferr == nil && !math.IsNaN(fl) && !math.IsInf(fl, 0) {
				return int(fl)
			}
			return 0
		}
		return n
	case KindBoolean:
		return ParseBool(raw)
	case KindDate:
		s := strings.TrimSpace(raw)
		if s == "" && f.Nullable {
			return nil
		}
		return s
	default:
		return raw
	}
}

// SplitTags 按逗号拆分标签。
func SplitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ParseBool 识别常见的开关写法，其余一律为 false。
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "on":
		return true
	}
	return false
}

// EditValue 返回载入编辑缓冲区时使用的值。日期截断为 YYYY-MM-DD。
func EditValue(f Field, v any) any {
	if f.Kind == KindDate {
		if s, ok := v.(string); ok && len(s) > 10 {
			return s[:10]
		}
	}
	return v
}

// Format 把字段值渲染为展示文本。
func Format(f Field, v any) string {
	switch f.Kind {
	case KindBoolean:
		if b, _ := v.(bool); b {
			return "Yes"
		}
		return "No"
	case KindTags:
		return strings.Join(toStrings(v), ", ")
	case KindNumber:
		n := toInt(v)
		if f.Key == "level" {
			return fmt.Sprintf("%d%%", n)
		}
		return strconv.Itoa(n)
	}
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsEmpty 判断字段值在详情视图中是否应被省略。
func IsEmpty(f Field, v any) bool {
	switch f.Kind {
	case KindBoolean, KindNumber:
		return v == nil
	case KindTags:
		return len(toStrings(v)) == 0
	}
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && isBlank(s)
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			out = append(out, fmt.Sprint(x))
		}
		return out
	}
	return nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
