package autotag

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSuggest_DefaultTable(t *testing.T) {
	s := NewSuggester(nil)

	tests := []struct {
		name    string
		content string
		title   string
		want    []string
	}{
		{"work keywords", "Meeting notes about the quarterly project plan and deadline", "", []string{"工作"}},
		{"tech and study", "Python API tutorial", "", []string{"技术", "学习"}},
		{"chinese", "今天的会议讨论了项目计划", "", []string{"工作"}},
		{"title counts", "see attached", "Health check", []string{"生活"}},
		{"case insensitive", "The REST API is DOCUMENTED in the DOCUMENTATION", "", []string{"技术", "学习"}},
		{"no match", "Cooking pasta recipe", "", nil},
		{"capped at three", "code project tutorial idea life", "", []string{"技术", "工作", "学习"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Suggest(tt.content, tt.title)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q, %q) = %v, want %v", tt.content, tt.title, got, tt.want)
			}
		})
	}
}

func TestSuggest_CustomTable(t *testing.T) {
	s := NewSuggester([]Category{
		{Name: "recipes", Keywords: []string{"  Pasta ", "soup"}},
		{Name: "", Keywords: []string{"ignored"}},
		{Name: "travel", Keywords: []string{"flight"}},
	})

	got := s.Suggest("Cooking PASTA before the flight", "")
	want := []string{"recipes", "travel"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Suggest = %v, want %v", got, want)
	}

	cats := s.Categories()
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories after dropping unnamed, got %d", len(cats))
	}
	if cats[0].Keywords[0] != "pasta" {
		t.Errorf("keyword not normalized: %q", cats[0].Keywords[0])
	}
}

func TestParseCategories(t *testing.T) {
	data := []byte(`
categories:
  - name: work
    keywords: [project, meeting]
  - name: life
    keywords:
      - hobby
`)
	cats, err := ParseCategories(data)
	if err != nil {
		t.Fatalf("ParseCategories: %v", err)
	}
	want := []Category{
		{Name: "work", Keywords: []string{"project", "meeting"}},
		{Name: "life", Keywords: []string{"hobby"}},
	}
	if !reflect.DeepEqual(cats, want) {
		t.Fatalf("got %+v, want %+v", cats, want)
	}
}

func TestParseCategories_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"empty", "categories: []", "no categories"},
		{"no name", "categories:\n  - keywords: [a]", "no name"},
		{"no keywords", "categories:\n  - name: x", "no keywords"},
		{"bad yaml", "categories: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCategories([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.msg)
			}
		})
	}
}

func TestLoadCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - name: go\n    keywords: [goroutine]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	got := NewSuggester(cats).Suggest("a goroutine leak", "")
	if !reflect.DeepEqual(got, []string{"go"}) {
		t.Errorf("Suggest = %v, want [go]", got)
	}

	if _, err := LoadCategories(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
