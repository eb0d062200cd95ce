package chunk

import (
	"strings"
	"testing"
)

func sentenceTexts(sentences []Sentence) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = s.Text
	}
	return out
}

func TestExtractSentencesBasic(t *testing.T) {
	got := ExtractSentences("The cat sat down. The dog barked loudly! Was anyone home?", 5)
	want := []string{"The cat sat down.", "The dog barked loudly!", "Was anyone home?"}

	if len(got) != len(want) {
		t.Fatalf("got %d sentences %v, want %d", len(got), sentenceTexts(got), len(want))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i].Text, want[i])
		}
		if got[i].Index != i {
			t.Errorf("sentence %d has index %d", i, got[i].Index)
		}
	}
}

func TestExtractSentencesKeepsTerminator(t *testing.T) {
	for _, s := range ExtractSentences("First point here. Second point there!", 5) {
		last := s.Text[len(s.Text)-1]
		if last != '.' && last != '!' && last != '?' {
			t.Errorf("sentence %q lost its terminator", s.Text)
		}
	}
}

func TestExtractSentencesMergesShortFragments(t *testing.T) {
	got := ExtractSentences("The meeting went well today. Ok. The next one is on Friday.", 5)
	if len(got) != 2 {
		t.Fatalf("got %d sentences %v, want 2", len(got), sentenceTexts(got))
	}
	if !strings.HasSuffix(got[0].Text, "Ok.") {
		t.Errorf("short fragment not merged into predecessor: %q", got[0].Text)
	}
}

func TestExtractSentencesShortLeadingFragment(t *testing.T) {
	got := ExtractSentences("Hi. The report is attached below for review.", 5)
	if len(got) != 1 {
		t.Fatalf("got %d sentences %v, want 1", len(got), sentenceTexts(got))
	}
	if !strings.HasPrefix(got[0].Text, "Hi.") {
		t.Errorf("leading fragment not merged forward: %q", got[0].Text)
	}
}

func TestExtractSentencesSingleSentence(t *testing.T) {
	got := ExtractSentences("Just one sentence without much else going on.", 5)
	if len(got) != 1 {
		t.Fatalf("got %d sentences, want exactly 1", len(got))
	}
}

func TestExtractSentencesNoTerminator(t *testing.T) {
	got := ExtractSentences("a fragment with no punctuation at all", 5)
	if len(got) != 1 {
		t.Fatalf("got %d sentences, want 1", len(got))
	}
}

func TestExtractSentencesEmpty(t *testing.T) {
	if got := ExtractSentences("", 5); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := ExtractSentences("   \n\t ", 5); got != nil {
		t.Errorf("expected nil for whitespace input, got %v", got)
	}
}

func TestExtractSentencesAbbreviationsAndDecimals(t *testing.T) {
	got := ExtractSentences("Dr. Smith charged $3.50 for the visit. The clinic closed early.", 5)
	if len(got) != 2 {
		t.Fatalf("got %d sentences %v, want 2", len(got), sentenceTexts(got))
	}
	if !strings.Contains(got[0].Text, "Dr. Smith") || !strings.Contains(got[0].Text, "$3.50") {
		t.Errorf("abbreviation or decimal split incorrectly: %q", got[0].Text)
	}
}

func TestExtractSentencesCJK(t *testing.T) {
	got := ExtractSentences("今日は良い天気です。明日は雨が降るでしょう。", 5)
	if len(got) != 2 {
		t.Fatalf("got %d sentences %v, want 2", len(got), sentenceTexts(got))
	}
}

func TestExtractSentencesPunctuationRuns(t *testing.T) {
	got := ExtractSentences("Really?! That is surprising news. Tell me everything...", 5)
	if len(got) != 3 {
		t.Fatalf("got %d sentences %v, want 3", len(got), sentenceTexts(got))
	}
	if got[0].Text != "Really?!" {
		t.Errorf("first sentence = %q, want %q", got[0].Text, "Really?!")
	}
}

func TestJoinSentences(t *testing.T) {
	s := []Sentence{{Text: "A b."}, {Text: "C d."}}
	if got, want := joinSentences(s), "A b. C d."; got != want {
		t.Errorf("joinSentences = %q, want %q", got, want)
	}
	if joinSentences(nil) != "" {
		t.Error("joinSentences(nil) should be empty")
	}
}
