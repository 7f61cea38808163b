package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/internal/repository"
	"portfolio-go/internal/service"
	"portfolio-go/pkg/database"
)

const sample = `
about:
  name: Jane Doe
  title: Backend Engineer
skills:
  - name: Go
    category: Core
    level: 90
    order: 1
  - name: SQL
    category: Backend
    level: 80
    order: 2
projects:
  - title: Portfolio
    technologies: [Go, Gin]
    featured: true
    order: 1
experience:
  - title: Engineer
    company: Acme
    start_date: "2025-08"
    end_date: null
    current: true
    order: 1
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func newRepo(t *testing.T) repository.ContentRepository {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewContentRepository(db)
}

func TestApplySeedsEmptyTablesOnce(t *testing.T) {
	ctx := context.Background()
	f, err := Load(writeSeed(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	repo := newRepo(t)
	crud := service.NewCRUDService(repo)

	seeded, err := Apply(ctx, repo, crud, f)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := map[content.Table]int{content.About: 1, content.Skills: 2, content.Projects: 1, content.Experience: 1}
	for tbl, n := range want {
		if seeded[tbl] != n {
			t.Fatalf("%s: seeded %d want %d", tbl, seeded[tbl], n)
		}
	}

	projects, err := repo.List(ctx, content.Projects)
	if err != nil {
		t.Fatal(err)
	}
	techs, _ := projects[0]["technologies"].([]any)
	if len(techs) != 2 || techs[0] != "Go" {
		t.Fatalf("technologies: %v", projects[0]["technologies"])
	}

	again, err := Apply(ctx, repo, crud, f)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second apply wrote rows: %v", again)
	}
	if n, _ := repo.Count(ctx, content.Skills); n != 2 {
		t.Fatalf("skills count: %d", n)
	}
}

func TestApplyRejectsInvalidRow(t *testing.T) {
	f, err := Load(writeSeed(t, "skills:\n  - category: Core\n    level: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	repo := newRepo(t)
	if _, err := Apply(context.Background(), repo, service.NewCRUDService(repo), f); !model.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestApplyStoreUnavailable(t *testing.T) {
	repo := repository.NewContentRepository(nil)
	f := &File{Skills: []model.Record{{"name": "Go"}}}
	if _, err := Apply(context.Background(), repo, service.NewCRUDService(repo), f); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Fatalf("want store unavailable, got %v", err)
	}
}

func TestLoadShippedSeedFile(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "configs", "seed.yaml"))
	if err != nil {
		t.Fatalf("load shipped seed: %v", err)
	}
	if f.About["name"] == nil || len(f.Skills) == 0 || len(f.Projects) == 0 {
		t.Fatalf("shipped seed is incomplete: %+v", f)
	}
	for _, tbl := range seedTables {
		e := content.Get(tbl)
		for i, row := range f.Rows(tbl) {
			if err := e.Validate(context.Background(), row, false); err != nil {
				t.Fatalf("%s row %d invalid: %v", tbl, i, err)
			}
		}
	}
}
