package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/kalambet/kvault/internal/storage"
)

var ctx = context.Background()

type staticSource struct {
	records []storage.Record
	err     error
}

func (s *staticSource) All(context.Context) ([]storage.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]storage.Record(nil), s.records...), nil
}

func rec(id, title, content string, tags ...string) storage.Record {
	if tags == nil {
		tags = []string{}
	}
	return storage.Record{
		ID:        id,
		Timestamp: "2025-01-01T00:00:00Z",
		Title:     title,
		Content:   content,
		Tags:      tags,
	}
}

func TestSearch_APIExample(t *testing.T) {
	src := &staticSource{records: []storage.Record{
		rec("pasta", "Cooking pasta recipe", "Boil water, add salt, cook the pasta"),
		rec("api", "Python API tutorial", "How to call a REST API from Python"),
		rec("none", "xyz", "zzz"),
	}}
	e := New(src)

	resp, err := e.Search(ctx, "API", 10, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Query != "API" {
		t.Errorf("Query = %q", resp.Query)
	}
	if len(resp.Results) == 0 || resp.Results[0].ID != "api" {
		t.Fatalf("expected api record first, got %+v", resp.Results)
	}
	if s := resp.Results[0].Score; s < 175 {
		t.Errorf("api score = %v, want >= 175", s)
	}
	for _, r := range resp.Results[1:] {
		if r.Score >= resp.Results[0].Score {
			t.Errorf("%s scored %v, not below the exact match", r.ID, r.Score)
		}
	}
	for _, r := range resp.Results {
		if r.ID == "none" {
			t.Error("record sharing nothing with the query should score 0 and be excluded")
		}
	}
	if resp.Total != len(resp.Results) {
		t.Errorf("Total = %d, results = %d", resp.Total, len(resp.Results))
	}
}

func TestScore_Weights(t *testing.T) {
	r := rec("1", "alpha", "beta", "gamma")
	tests := []struct {
		query string
		min   float64
	}{
		{"alpha", titleExact + titleWord + titleSimilarity},
		{"beta", contentExact + contentWord + contentSimilarity},
		{"gamma", tagsExact + tagsWord},
	}
	for _, tt := range tests {
		if got := Score(r, tt.query); got < tt.min {
			t.Errorf("Score(%q) = %v, want >= %v", tt.query, got, tt.min)
		}
	}

	if got := Score(rec("2", "qqq", "qqq"), "zz"); got != 0 {
		t.Errorf("disjoint score = %v, want 0", got)
	}
}

func TestScore_ShortWordsIgnored(t *testing.T) {
	// Full-query bonus plus perfect title similarity; "go" is too short for
	// a word bonus.
	if got := Score(rec("1", "go", ""), "go"); got != titleExact+titleSimilarity {
		t.Errorf("Score(go) = %v, want %v", got, titleExact+titleSimilarity)
	}
	if got := Score(rec("2", "fun", ""), "fun"); got != titleExact+titleSimilarity+titleWord {
		t.Errorf("Score(fun) = %v, want %v", got, titleExact+titleSimilarity+titleWord)
	}
}

func TestSearch_ExactTitleDominates(t *testing.T) {
	src := &staticSource{records: []storage.Record{
		rec("b", "Go concurrency idioms", "channels and goroutines"),
		rec("a", "Go concurrency patterns", "channels and goroutines"),
	}}
	resp, err := New(src).Search(ctx, "patterns", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results[0].ID != "a" {
		t.Fatalf("expected exact title match first, got %+v", resp.Results)
	}
	if len(resp.Results) > 1 && resp.Results[1].Score >= resp.Results[0].Score {
		t.Errorf("scores not strictly ordered: %v vs %v", resp.Results[0].Score, resp.Results[1].Score)
	}
}

func TestSearch_TiesKeepStoreOrder(t *testing.T) {
	src := &staticSource{records: []storage.Record{
		rec("first", "same title", "same body"),
		rec("second", "same title", "same body"),
		rec("third", "same title", "same body"),
	}}
	resp, err := New(src).Search(ctx, "same", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"first", "second", "third"}) {
		t.Errorf("order = %v", ids)
	}
}

func TestSearch_TagFilter(t *testing.T) {
	src := &staticSource{records: []storage.Record{
		rec("1", "plan", "quarterly plan", "Work"),
		rec("2", "plan", "holiday plan", "life"),
		rec("3", "plan", "plan", "tech", "WORK"),
	}}
	resp, err := New(src).Search(ctx, "plan", 10, " work , ")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	for _, r := range resp.Results {
		if r.ID == "2" {
			t.Errorf("record without work tag returned")
		}
	}

	all, err := New(src).Search(ctx, "plan", 10, " , ")
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 3 {
		t.Errorf("blank filter should not filter, Total = %d", all.Total)
	}
}

func TestSearch_LimitAndTotal(t *testing.T) {
	var records []storage.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec(fmt.Sprint(i), "note", fmt.Sprintf("note body %d", i)))
	}
	e := New(&staticSource{records: records})

	resp, err := e.Search(ctx, "note", 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 5 || len(resp.Results) != 2 {
		t.Errorf("Total = %d, len = %d; want 5, 2", resp.Total, len(resp.Results))
	}

	resp, err = e.Search(ctx, "note", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 5 {
		t.Errorf("default limit returned %d results", len(resp.Results))
	}
}

func TestSearch_Errors(t *testing.T) {
	e := New(&staticSource{})
	if _, err := e.Search(ctx, "   ", 10, ""); !storage.IsValidation(err) {
		t.Errorf("blank query error = %v, want validation error", err)
	}

	boom := errors.New("boom")
	e = New(&staticSource{err: boom})
	if _, err := e.Search(ctx, "q", 10, ""); !errors.Is(err, boom) {
		t.Errorf("error = %v, want source error", err)
	}
	if _, err := e.Recent(ctx, 10); !errors.Is(err, boom) {
		t.Errorf("Recent error = %v, want source error", err)
	}
}

func TestSearch_EmptyStoreHasEmptyResults(t *testing.T) {
	resp, err := New(&staticSource{}).Search(ctx, "anything", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results == nil || len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSearch_SnippetLengthOption(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 40)
	src := &staticSource{records: []storage.Record{rec("1", "t", long)}}
	resp, err := New(src, WithSnippetLength(20)).Search(ctx, "lorem", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(resp.Results[0].Snippet)); n > 23 {
		t.Errorf("snippet has %d runes, want <= 23", n)
	}
}

func TestRecent(t *testing.T) {
	long := strings.Repeat("y", 200)
	src := &staticSource{records: []storage.Record{
		{ID: "old", Timestamp: "2025-01-01T00:00:00Z", Title: "old", Content: "old", Tags: []string{}},
		{ID: "new", Timestamp: "2025-03-01T00:00:00Z", Title: "new", Content: long, Tags: []string{}},
		{ID: "mid", Timestamp: "2025-02-01T00:00:00Z", Title: "mid", Content: "mid", Tags: []string{}},
	}}
	e := New(src)

	got, err := e.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("Recent = %+v", got)
	}
	if got[0].Snippet != strings.Repeat("y", 150)+"..." {
		t.Errorf("preview = %q", got[0].Snippet)
	}
	if got[0].Score != 0 {
		t.Errorf("recent results carry no score")
	}

	// The source slice must not be reordered.
	if src.records[0].ID != "old" {
		t.Error("Recent mutated source records")
	}
}
