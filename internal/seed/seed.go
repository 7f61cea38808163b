// Package seed 在启动时把 YAML 种子内容写入空表。
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/pkg/log"
)

// File 是种子文件的结构。
type File struct {
	About          model.Record   `yaml:"about"`
	Skills         []model.Record `yaml:"skills"`
	Projects       []model.Record `yaml:"projects"`
	Experience     []model.Record `yaml:"experience"`
	Certifications []model.Record `yaml:"certifications"`
}

// Counter 返回表中的行数。
type Counter interface {
	Count(ctx context.Context, t content.Table) (int64, error)
}

// Creator 校验并插入一行，通常是 service.CRUDService。
type Creator interface {
	Create(ctx context.Context, t content.Table, payload model.Record) (model.Record, error)
}

// Load 读取并解析种子文件。
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &f, nil
}

// Rows 返回某张表的种子行。
func (f *File) Rows(t content.Table) []model.Record {
	switch t {
	case content.About:
		if len(f.About) == 0 {
			return nil
		}
		return []model.Record{f.About}
	case content.Skills:
		return f.Skills
	case content.Projects:
		return f.Projects
	case content.Experience:
		return f.Experience
	case content.Certifications:
		return f.Certifications
	}
	return nil
}

// seedTables 是会被导入的表，访客写入的表不在其中。
var seedTables = []content.Table{content.About, content.Skills, content.Projects, content.Experience, content.Certifications}

// Apply 把种子写入所有为空的表，已有数据的表跳过。返回每张表写入的行数。
func Apply(ctx context.Context, counter Counter, creator Creator, f *File) (map[content.Table]int, error) {
	seeded := make(map[content.Table]int)
	for _, t := range seedTables {
		rows := f.Rows(t)
		if len(rows) == 0 {
			continue
		}
		n, err := counter.Count(ctx, t)
		if err != nil {
			return seeded, fmt.Errorf("count %s: %w", t, err)
		}
		if n > 0 {
			log.Infof("种子数据: %s 已有 %d 行，跳过", t, n)
			continue
		}
		for i, row := range rows {
			if _, err := creator.Create(ctx, t, row); err != nil {
				return seeded, fmt.Errorf("seed %s row %d: %w", t, i, err)
			}
			seeded[t]++
		}
		log.Infof("种子数据: %s 写入 %d 行", t, seeded[t])
	}
	return seeded, nil
}
