package search

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		want    string
	}{
		{"short match", "hello world", "world", "hello world"},
		{"case insensitive", "Hello WORLD", "world", "Hello WORLD"},
		{"word fallback", "the quick brown fox", "slow fox", "the quick brown fox"},
		{"no match short", "nothing here", "zebra", "nothing here"},
		{"trimmed", "   padded  ", "padded", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snippet(tt.content, tt.query, 150); got != tt.want {
				t.Errorf("Snippet = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippet_CentersMatch(t *testing.T) {
	content := strings.Repeat("a", 200) + "needle" + strings.Repeat("b", 200)
	got := Snippet(content, "NEEDLE", 150)

	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipses on both ends, got %q", got)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
	if utf8.RuneCountInString(body) != 150 {
		t.Errorf("window has %d runes, want 150", utf8.RuneCountInString(body))
	}
	if idx := strings.Index(body, "needle"); idx != 50 {
		t.Errorf("match at offset %d, want 50", idx)
	}
}

func TestSnippet_NoMatchStartsAtBeginning(t *testing.T) {
	content := strings.Repeat("word ", 60)
	got := Snippet(content, "absent", 150)
	if strings.HasPrefix(got, "...") {
		t.Errorf("unexpected leading ellipsis: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected trailing ellipsis: %q", got)
	}
}

func TestSnippet_MatchNearStartHasNoPrefix(t *testing.T) {
	content := "intro needle " + strings.Repeat("z", 300)
	got := Snippet(content, "needle", 150)
	if !strings.HasPrefix(got, "intro needle") {
		t.Errorf("got %q", got)
	}
}

func TestSnippet_Runes(t *testing.T) {
	content := strings.Repeat("知识", 100) + "目标" + strings.Repeat("笔记", 100)
	got := Snippet(content, "目标", 30)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if !strings.Contains(got, "目标") {
		t.Errorf("snippet %q lost the match", got)
	}
}

func TestSnippet_DefaultLength(t *testing.T) {
	content := strings.Repeat("x", 400)
	got := Snippet(content, "x", 0)
	if utf8.RuneCountInString(got) != DefaultSnippetLength+3 {
		t.Errorf("len = %d, want %d", utf8.RuneCountInString(got), DefaultSnippetLength+3)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 150); got != "short" {
		t.Errorf("Preview = %q", got)
	}
	long := strings.Repeat("x", 151)
	got := Preview(long, 150)
	if got != strings.Repeat("x", 150)+"..." {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview(strings.Repeat("知", 150), 150); strings.HasSuffix(got, "...") {
		t.Errorf("exactly maxLength runes should not be truncated")
	}
}
