package speech

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic",
			text: "We open at noon. Do you have a booking? Great!",
			want: []string{"We open at noon.", "Do you have a booking?", "Great!"},
		},
		{
			name: "prices and abbreviations",
			text: "The steak is 24.50 tonight. Ask Dr. Salem about wine, e.g. the Merlot.",
			want: []string{"The steak is 24.50 tonight.", "Ask Dr. Salem about wine, e.g. the Merlot."},
		},
		{
			name: "ellipsis",
			text: "Hmm... let me check. Yes.",
			want: []string{"Hmm... let me check.", "Yes."},
		},
		{
			name: "lowercase continuation",
			text: "Open 9 a.m. to 5 p.m. daily.",
			want: []string{"Open 9 a.m. to 5 p.m. daily."},
		},
		{
			name: "arabic",
			text: "مرحبا بكم. نحن مفتوحون حتى منتصف الليل.",
			want: []string{"مرحبا بكم.", "نحن مفتوحون حتى منتصف الليل."},
		},
		{
			name: "whitespace only",
			text: " \n\t ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sentences(tt.text)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("sentences() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSegmentPacksSentences(t *testing.T) {
	text := "One. Two. Three. Four."
	got := Segment(text, 10)
	want := []string{"One. Two.", "Three.", "Four."}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Segment() = %#v, want %#v", got, want)
	}
}

func TestSegmentSplitsOversizedSentence(t *testing.T) {
	parts := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		parts = append(parts, "hummus")
	}
	text := strings.Join(parts, ", ") + "."

	got := Segment(text, 4096)
	if len(got) < 2 {
		t.Fatalf("expected several segments, got %d", len(got))
	}
	for i, seg := range got {
		if n := utf8.RuneCountInString(seg); n > 4096 {
			t.Fatalf("segment %d has %d runes", i, n)
		}
	}
	if !strings.HasSuffix(got[0], ",") {
		t.Fatalf("expected a clause cut, got tail %q", got[0][len(got[0])-10:])
	}
}

func TestSegmentHardCutWithoutClauses(t *testing.T) {
	got := Segment(strings.Repeat("x", 25), 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %#v", got)
	}
}
