package lyrics

import (
	"strings"
	"testing"
)

func TestFormatExactLyricsRoundTrip(t *testing.T) {
	got := FormatExactLyrics("I am strong. I will grow.")
	verse := "I am strong\nI will grow"

	if strings.Count(got, verse) != 4 {
		t.Fatalf("verse text should appear four times (V/C/V/C), got:\n%s", got)
	}

	// Fixed Verse/Chorus/Verse/Chorus order.
	want := "[Verse]\n" + verse + "\n\n[Chorus]\n" + verse + "\n\n[Verse]\n" + verse + "\n\n[Chorus]\n" + verse
	if got != want {
		t.Errorf("unexpected structure:\n%s", got)
	}
}

func TestFormatExactLyricsSplitsOnSentencePunctuation(t *testing.T) {
	got := FormatExactLyrics("I can! Will I? Yes.")
	if !strings.Contains(got, "I can\nWill I\nYes") {
		t.Errorf("sentences should split on .!? and join with newlines:\n%s", got)
	}
}

func TestFormatExactLyricsNoPunctuation(t *testing.T) {
	got := FormatExactLyrics("I am enough")
	if !strings.HasPrefix(got, "[Verse]\nI am enough") {
		t.Errorf("single sentence should still get song structure:\n%s", got)
	}
}

func TestFormatExactLyricsEmptyInput(t *testing.T) {
	if got := FormatExactLyrics("..."); got != "..." {
		t.Errorf("punctuation-only input should pass through, got %q", got)
	}
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		mantra string
		want   string
	}{
		{"I am capable of great things", "I am capable of"},
		{"Breathe", "Breathe"},
		{"", "Mantra Song"},
		{"   ", "Mantra Song"},
	}

	for _, tc := range tests {
		if got := FallbackTitle(tc.mantra); got != tc.want {
			t.Errorf("FallbackTitle(%q) = %q, want %q", tc.mantra, got, tc.want)
		}
	}
}
