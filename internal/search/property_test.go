package search

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/kalambet/kvault/internal/storage"
)

var tagPool = []string{"work", "Work", "WORK", "life", "tech", "学习"}

func genRecords(t *rapid.T) []storage.Record {
	n := rapid.IntRange(0, 12).Draw(t, "n")
	records := make([]storage.Record, n)
	for i := range records {
		tags := rapid.SliceOfNDistinct(rapid.SampledFrom(tagPool), 0, 3, rapid.ID[string]).Draw(t, fmt.Sprintf("tags%d", i))
		records[i] = storage.Record{
			ID:        fmt.Sprintf("r%d", i),
			Timestamp: fmt.Sprintf("2025-01-01T00:00:%02dZ", i),
			Title:     rapid.StringMatching(`[a-z ]{0,16}`).Draw(t, fmt.Sprintf("title%d", i)),
			Content:   rapid.StringMatching(`[a-z ]{0,40}`).Draw(t, fmt.Sprintf("content%d", i)),
			Tags:      append([]string{}, tags...),
		}
	}
	return records
}

func TestProperty_SearchDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		query := rapid.StringMatching(`[a-z]{1,6}( [a-z]{1,6})?`).Draw(t, "query")
		e := New(&staticSource{records: records})

		first, err := e.Search(ctx, query, 10, "")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		second, err := e.Search(ctx, query, 10, "")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("repeated search differs:\n%+v\n%+v", first, second)
		}
		for i := 1; i < len(first.Results); i++ {
			if first.Results[i].Score > first.Results[i-1].Score {
				t.Fatalf("results not sorted by score at %d", i)
			}
		}
	})
}

func TestProperty_TagFilterHonoured(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		query := rapid.StringMatching(`[a-z]{1,4}`).Draw(t, "query")

		resp, err := New(&staticSource{records: records}).Search(ctx, query, 100, "work")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		byID := make(map[string]storage.Record, len(records))
		for _, r := range records {
			byID[r.ID] = r
		}
		for _, res := range resp.Results {
			found := false
			for _, tag := range byID[res.ID].Tags {
				if strings.EqualFold(tag, "work") {
					found = true
				}
			}
			if !found {
				t.Fatalf("result %s lacks work tag: %v", res.ID, byID[res.ID].Tags)
			}
		}
	})
}

func TestProperty_ExactTitleMatchScoresHigher(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		query := rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "query")
		base := rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "base")
		content := rapid.StringMatching(`[a-z ]{0,40}`).Draw(t, "content")
		if strings.Contains(base, query) {
			t.Skip("base title already contains the query")
		}

		with := storage.Record{Title: base + " " + query, Content: content}
		without := storage.Record{Title: base, Content: content}
		if Score(with, query) <= Score(without, query) {
			t.Fatalf("title %q scored %v, not above %q at %v",
				with.Title, Score(with, query), without.Title, Score(without, query))
		}
	})
}

func TestProperty_RatioBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")
		b := rapid.String().Draw(t, "b")
		r := Ratio(a, b)
		if r < 0 || r > 1 {
			t.Fatalf("Ratio(%q, %q) = %v out of [0, 1]", a, b, r)
		}
		if a != "" && Ratio(a, a) != 1 {
			t.Fatalf("Ratio(%q, itself) = %v", a, Ratio(a, a))
		}
	})
}
