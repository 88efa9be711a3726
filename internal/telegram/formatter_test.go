package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/failover"
	"github.com/kitbuilder587/jarvis-bot/internal/service"
)

func TestFormatReply(t *testing.T) {
	got := FormatReply("  a < b & c  ")
	if got != "a &lt; b &amp; c" {
		t.Errorf("FormatReply() = %q", got)
	}
}

func TestFormatProfile(t *testing.T) {
	p := &domain.Profile{
		Name:     "John <Smith>",
		Age:      42,
		City:     "Austin",
		Spouse:   &domain.Person{Name: "Jane", Age: 40},
		Children: []domain.Person{{Name: "Tom", Age: 10, Gender: "male"}},
	}

	got := FormatProfile(p)

	for _, want := range []string{"John &lt;Smith&gt;", "Age: 42", "City: Austin", "Spouse: Jane, 40", "1. Tom, 10, male", "<b>Instruction:</b>"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatProfile() should contain %q\n%s", want, got)
		}
	}
	if !strings.Contains(got, "Gender: -") {
		t.Error("missing fields should be shown as -")
	}
}

func TestFormatProfile_NoChildren(t *testing.T) {
	got := FormatProfile(&domain.Profile{Name: "John"})
	if !strings.Contains(got, "Children: no children") {
		t.Errorf("FormatProfile() = %q", got)
	}
}

func TestFormatKeyStatus(t *testing.T) {
	r := service.KeyReport{
		Provider: "groq",
		Keys:     3,
		Last:     failover.KeyStatus{CurrentIndex: 1, ExhaustedIndices: []int{0}},
	}

	got := FormatKeyStatus(r)

	for _, want := range []string{"groq", "API keys:</b> 3", "Key 1: exhausted", "Key 2: active", "Key 3: ready"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatKeyStatus() should contain %q\n%s", want, got)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLen    int
		wantParts int
	}{
		{"short", "hello", 100, 1},
		{"exact", strings.Repeat("a", 10), 10, 1},
		{"words", strings.Repeat("word ", 10), 20, 3},
		{"no spaces", strings.Repeat("a", 25), 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitMessage(tt.text, tt.maxLen)
			if len(parts) != tt.wantParts {
				t.Errorf("SplitMessage() = %d parts, want %d: %q", len(parts), tt.wantParts, parts)
			}
			if strings.Join(parts, "") != tt.text {
				t.Error("parts should join back into the original text")
			}
			for _, p := range parts {
				if len(p) > tt.maxLen {
					t.Errorf("part too long: %d > %d", len(p), tt.maxLen)
				}
			}
		})
	}
}

func TestSplitMessage_KeepsTagsAndRunes(t *testing.T) {
	text := strings.Repeat("привет ", 5) + "<i>курсив</i>" + strings.Repeat("ж", 30)

	for _, p := range SplitMessage(text, 16) {
		if !utf8.ValidString(p) {
			t.Errorf("part is not valid utf-8: %q", p)
		}
	}
}
