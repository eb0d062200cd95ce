package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Sentence is one sentence-like unit with its ordinal position in the
// source document. Text always keeps its terminal punctuation attached.
type Sentence struct {
	Text  string
	Index int
}

// ExtractSentences splits text into sentences, merging any fragment shorter
// than minLen into its predecessor. Output is non-empty for non-empty input;
// single-sentence input yields exactly one element.
func ExtractSentences(text string, minLen int) []Sentence {
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" {
		return nil
	}

	parts := splitTerminals(text)
	merged := mergeShortFragments(parts, minLen)

	out := make([]Sentence, len(merged))
	for i, s := range merged {
		out[i] = Sentence{Text: s, Index: i}
	}
	return out
}

// splitTerminals cuts text after sentence-terminal punctuation, keeping the
// terminator attached to the sentence it closes. Handles ASCII punctuation
// (.!?) with abbreviation and decimal awareness, plus CJK terminators.
func splitTerminals(text string) []string {
	var parts []string
	runes := []rune(text)
	n := len(runes)

	byteOffsets := make([]int, n+1)
	off := 0
	for i, r := range runes {
		byteOffsets[i] = off
		off += utf8.RuneLen(r)
	}
	byteOffsets[n] = off

	start := 0
	flush := func(endByte int) {
		s := strings.TrimSpace(text[start:endByte])
		if s != "" {
			parts = append(parts, s)
		}
		start = endByte
	}

	for i := 0; i < n; i++ {
		r := runes[i]

		// CJK sentence-ending punctuation is always a boundary.
		if r == '。' || r == '！' || r == '？' {
			flush(byteOffsets[i+1])
			continue
		}

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		dotPos := byteOffsets[i]
		if r == '.' && isDecimalDot(text, dotPos) {
			continue
		}
		if r == '.' && isAbbreviation(text, dotPos) {
			continue
		}

		// Swallow runs of terminal punctuation ("?!", "...") as one
		// terminator.
		j := i
		for j+1 < n && (runes[j+1] == '.' || runes[j+1] == '!' || runes[j+1] == '?') {
			j++
		}

		if j+1 >= n || runes[j+1] == ' ' || runes[j+1] == '\n' || runes[j+1] == '\t' {
			flush(byteOffsets[j+1])
		}
		i = j
	}

	if start < len(text) {
		flush(len(text))
	}
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// mergeShortFragments appends any fragment shorter than minLen to the
// previous one. A short leading fragment merges forward instead.
func mergeShortFragments(parts []string, minLen int) []string {
	if minLen <= 0 {
		return parts
	}
	var out []string
	for _, p := range parts {
		if len(p) < minLen && len(out) > 0 {
			out[len(out)-1] = out[len(out)-1] + " " + p
			continue
		}
		out = append(out, p)
	}
	// A short first fragment could not merge backward; fold it into the
	// following sentence if one exists.
	if len(out) >= 2 && len(out[0]) < minLen {
		out[1] = out[0] + " " + out[1]
		out = out[1:]
	}
	return out
}

// abbreviations that should NOT be treated as sentence boundaries.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true,
	"prof": true, "sr": true, "jr": true,
	"vs": true, "etc": true, "inc": true, "ltd": true,
	"e.g": true, "i.e": true, "viz": true, "al": true,
	"approx": true, "dept": true, "est": true,
	"fig": true, "no": true, "vol": true,
}

// isAbbreviation checks if the text ending at dotPos (the '.') is a common
// abbreviation.
func isAbbreviation(text string, dotPos int) bool {
	start := dotPos
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start -= size
	}
	word := strings.ToLower(text[start:dotPos])
	return abbreviations[word]
}

// isDecimalDot checks if the dot at dotPos is part of a number (3.14, $1.50).
func isDecimalDot(text string, dotPos int) bool {
	if dotPos == 0 || dotPos+1 >= len(text) {
		return false
	}
	prev := text[dotPos-1]
	next := text[dotPos+1]
	return prev >= '0' && prev <= '9' && next >= '0' && next <= '9'
}

// joinSentences renders a run of sentences back into chunk text.
func joinSentences(sentences []Sentence) string {
	switch len(sentences) {
	case 0:
		return ""
	case 1:
		return sentences[0].Text
	}
	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
