package autotag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", ""},
		{"whitespace", "   \n", ""},
		{"short", "Buy milk", "Buy milk"},
		{"sentence break", "Remember the deadline. Then call the vendor about it.", "Remember the deadline...."},
		{"early delimiter ignored", "Hi. This is a note that keeps going well past the fifty rune cut off point", "Hi. This is a note that keeps going well past the..."},
		{"exact sentence", "A complete sentence.", "A complete sentence."},
		{"question mark", "What should we build next? Some ideas follow", "What should we build next?..."},
		{"delimiter order wins", "What should we build next? Some ideas follow.", "What should we build next? Some ideas follow."},
		{"fullwidth", "今天我们讨论了很多关于项目的问题和计划。后面还有更多内容", "今天我们讨论了很多关于项目的问题和计划。..."},
		{"surrounding space trimmed", "  padded content  ", "padded content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateTitle(tt.content); got != tt.want {
				t.Errorf("GenerateTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestGenerateTitle_LongContentTruncated(t *testing.T) {
	content := "Meeting notes about the quarterly project plan and deadline"
	got := GenerateTitle(content)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n > 50 {
		t.Errorf("title body has %d runes, want <= 50", n)
	}
	if !strings.HasPrefix(content, strings.TrimSuffix(got, "...")) {
		t.Errorf("title %q is not a prefix of content", got)
	}
}

func TestGenerateTitle_NeverSplitsRunes(t *testing.T) {
	content := strings.Repeat("知识", 40)
	got := GenerateTitle(content)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8 in %q", got)
	}
	if utf8.RuneCountInString(got) != 53 {
		t.Errorf("rune count = %d, want 53", utf8.RuneCountInString(got))
	}
}
