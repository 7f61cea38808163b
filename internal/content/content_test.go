package content

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"portfolio-go/internal/model"
)

func TestLookup(t *testing.T) {
	for _, tbl := range Tables() {
		if got, ok := Lookup(string(tbl)); !ok || got != tbl {
			t.Fatalf("Lookup(%q) = %q,%v", tbl, got, ok)
		}
	}
	if _, ok := Lookup("users"); ok {
		t.Fatal("unknown table accepted")
	}
}

func TestEmptyRowSkillDefaults(t *testing.T) {
	row := Get(Skills).EmptyRow()
	if row["level"] != 50 || row["category"] != "Core" || row["name"] != "" {
		t.Fatalf("skill empty row: %+v", row)
	}
	proj := Get(Projects).EmptyRow()
	if tags, ok := proj["technologies"].([]string); !ok || len(tags) != 0 {
		t.Fatalf("technologies default: %#v", proj["technologies"])
	}
}

func TestParseInput(t *testing.T) {
	tags := Field{Key: "technologies", Kind: KindTags}
	num := Field{Key: "order", Kind: KindNumber}
	flag := Field{Key: "featured", Kind: KindBoolean}
	end := Field{Key: "end_date", Kind: KindDate, Nullable: true}

	cases := []struct {
		name string
		f    Field
		raw  string
		want any
	}{
		{"tags trimmed", tags, " Go, ,React ,  SQL,", []string{"Go", "React", "SQL"}},
		{"tags empty", tags, " , ", []string{}},
		{"number", num, " 42 ", 42},
		{"number invalid", num, "abc", 0},
		{"number float", num, "7.9", 7},
		{"bool yes", flag, "Yes", true},
		{"bool on", flag, "on", true},
		{"bool other", flag, "maybe", false},
		{"date nullable blank", end, "  ", nil},
		{"date", end, "2025-08-01", "2025-08-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseInput(tc.f, tc.raw); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got=%#v want=%#v", got, tc.want)
			}
		})
	}
}

func TestEditValueTruncatesDates(t *testing.T) {
	f := Field{Key: "start_date", Kind: KindDate}
	if got := EditValue(f, "2025-08-01T00:00:00Z"); got != "2025-08-01" {
		t.Fatalf("got=%v", got)
	}
	if got := EditValue(f, "2025-08"); got != "2025-08" {
		t.Fatalf("short date changed: %v", got)
	}
}

func TestFormat(t *testing.T) {
	level, _ := Get(Skills).Field("level")
	tech, _ := Get(Projects).Field("technologies")
	feat, _ := Get(Projects).Field("featured")

	if got := Format(level, float64(70)); got != "70%" {
		t.Fatalf("level: got=%q", got)
	}
	if got := Format(tech, []any{"Go", "Redis"}); got != "Go, Redis" {
		t.Fatalf("tags: got=%q", got)
	}
	if Format(feat, true) != "Yes" || Format(feat, false) != "No" {
		t.Fatal("boolean rendering")
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	skills := Get(Skills)

	cases := []struct {
		name    string
		row     model.Record
		partial bool
		field   string
	}{
		{"missing name", model.Record{"category": "Core", "level": 50}, false, "name"},
		{"blank name", model.Record{"name": "   ", "level": 50}, false, "name"},
		{"level too high", model.Record{"name": "Go", "level": 101}, false, "level"},
		{"level negative", model.Record{"name": "Go", "level": -1}, false, "level"},
		{"level not integer", model.Record{"name": "Go", "level": 10.5}, false, "level"},
		{"partial blank name", model.Record{"name": ""}, true, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := skills.Validate(ctx, tc.row, tc.partial)
			var ve *model.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("field: got=%q want=%q (%v)", ve.Field, tc.field, ve)
			}
		})
	}

	if err := skills.Validate(ctx, model.Record{"name": "Go", "level": 100, "category": "Backend"}, false); err != nil {
		t.Fatalf("valid skill rejected: %v", err)
	}
	if err := skills.Validate(ctx, model.Record{"level": 0}, true); err != nil {
		t.Fatalf("partial update rejected: %v", err)
	}
	proj := Get(Projects)
	if err := proj.Validate(ctx, model.Record{"title": "X", "technologies": []any{"Go", 1}}, false); err == nil {
		t.Fatal("non-string tag accepted")
	}
	if err := proj.Validate(ctx, model.Record{"title": "X", "featured": "yes"}, false); err == nil {
		t.Fatal("string boolean accepted")
	}
}

func TestStripServerFieldsKeepsInput(t *testing.T) {
	in := model.Record{"id": 1, "created_at": "x", "updated_at": "y", "name": "Go"}
	out := StripServerFields(in)
	if len(out) != 1 || out["name"] != "Go" {
		t.Fatalf("out: %+v", out)
	}
	if len(in) != 4 {
		t.Fatal("input must not be modified")
	}
}
