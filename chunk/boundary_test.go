package chunk

import (
	"strings"
	"testing"
)

func TestApplyDomainHeuristicsTransitionPenalty(t *testing.T) {
	cfg := DefaultConfig()
	sentences := []Sentence{
		{Text: "Revenue grew steadily through the spring.", Index: 0},
		{Text: "However, operating costs rose even faster.", Index: 1},
	}
	profile := []float32{0.9}

	adjusted := applyDomainHeuristics(profile, sentences, cfg)

	want := 0.9 * cfg.TransitionPenalty
	if adjusted[0] != want {
		t.Errorf("adjusted[0] = %v, want %v", adjusted[0], want)
	}
	if profile[0] != 0.9 {
		t.Error("input profile must not be mutated")
	}
}

func TestApplyDomainHeuristicsContinuityBonusCapped(t *testing.T) {
	cfg := DefaultConfig()
	sentences := []Sentence{
		{Text: "Gross margin reached 41% in the quarter.", Index: 0},
		{Text: "Net margin came in at 12% on higher volume.", Index: 1},
	}
	profile := []float32{0.95}

	adjusted := applyDomainHeuristics(profile, sentences, cfg)

	// 0.95 * 1.15 exceeds 1, so the bonus is capped.
	if adjusted[0] != 1 {
		t.Errorf("adjusted[0] = %v, want capped 1.0", adjusted[0])
	}
}

func TestApplyDomainHeuristicsNoMarkers(t *testing.T) {
	cfg := DefaultConfig()
	sentences := []Sentence{
		{Text: "The cat sat on the mat.", Index: 0},
		{Text: "The dog slept by the fire.", Index: 1},
	}
	profile := []float32{0.8}

	adjusted := applyDomainHeuristics(profile, sentences, cfg)
	if adjusted[0] != 0.8 {
		t.Errorf("adjusted[0] = %v, want unchanged 0.8", adjusted[0])
	}
}

func TestDetectCandidatesStrictLocalMinimum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.75

	// Position 1 is a strict local minimum below the threshold.
	// Position 3 is below threshold but not a local minimum.
	profile := []float32{0.9, 0.2, 0.9, 0.5, 0.4}

	got := detectCandidates(profile, cfg)
	if len(got) != 1 {
		t.Fatalf("got %d candidates %v, want 1", len(got), got)
	}
	if got[0].Index != 2 {
		t.Errorf("candidate index = %d, want 2 (cut before sentence 2)", got[0].Index)
	}
}

func TestDetectCandidatesRespectsThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.5

	// A local minimum at 0.6 sits above the 0.5 threshold: no candidate.
	profile := []float32{0.9, 0.6, 0.9}
	if got := detectCandidates(profile, cfg); len(got) != 0 {
		t.Errorf("got %v, want no candidates", got)
	}
}

func TestDetectCandidatesEdgesExcluded(t *testing.T) {
	cfg := DefaultConfig()
	// The lowest values sit at the profile edges, where "lower than both
	// neighbors" cannot hold.
	profile := []float32{0.1, 0.9, 0.1}
	if got := detectCandidates(profile, cfg); len(got) != 0 {
		t.Errorf("got %v, want no candidates at profile edges", got)
	}
}

func TestCandidateConfidenceClamped(t *testing.T) {
	// Deep dip versus a high local average: raw score exceeds 1 and must
	// be clamped.
	profile := []float32{0.9, 0.05, 0.9}
	conf := candidateConfidence(profile, 1, 3)
	if conf != 1 {
		t.Errorf("confidence = %v, want clamped 1.0", conf)
	}

	// Shallow dip: confidence stays well below 1.
	profile = []float32{0.8, 0.7, 0.8}
	conf = candidateConfidence(profile, 1, 3)
	if conf <= 0 || conf >= 1 {
		t.Errorf("confidence = %v, want inside (0,1)", conf)
	}
}

func makeSentences(n, size int) []Sentence {
	out := make([]Sentence, n)
	for i := range out {
		out[i] = Sentence{Text: strings.Repeat("x", size-1) + ".", Index: i}
	}
	return out
}

func TestResolveBoundariesConfidenceGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 10
	cfg.MaxChunkSize = 10000
	cfg.MinSentencesPerChunk = 1
	cfg.BoundaryConfidenceThreshold = 0.6

	sentences := makeSentences(6, 20)
	candidates := []Candidate{
		{Index: 2, Confidence: 0.9}, // accepted: above the bar
		{Index: 4, Confidence: 0.3}, // rejected: below the bar, size fine
	}

	spans := resolveBoundaries(sentences, candidates, cfg)
	if len(spans) != 2 {
		t.Fatalf("got %d spans %v, want 2", len(spans), spans)
	}
	if spans[0].End != 2 {
		t.Errorf("first span ends at %d, want 2", spans[0].End)
	}
	if spans[1].Start != 2 || spans[1].End != 6 {
		t.Errorf("second span = %v, want [2,6)", spans[1])
	}
	if spans[1].Confidence != 1 {
		t.Errorf("final span confidence = %v, want 1", spans[1].Confidence)
	}
}

func TestResolveBoundariesMinSizeBlocksCut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 100
	cfg.MaxChunkSize = 10000
	cfg.MinSentencesPerChunk = 1

	// Each sentence is 20 chars; a cut at index 1 would leave a 20-char
	// chunk, under the 100-char minimum.
	sentences := makeSentences(4, 20)
	candidates := []Candidate{{Index: 1, Confidence: 0.99}}

	spans := resolveBoundaries(sentences, candidates, cfg)
	if len(spans) != 1 {
		t.Fatalf("got %d spans %v, want 1 (min size must block the cut)", len(spans), spans)
	}
}

func TestResolveBoundariesMaxSizeForcesLowConfidenceCut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 10
	cfg.MaxChunkSize = 50
	cfg.MinSentencesPerChunk = 1
	cfg.BoundaryConfidenceThreshold = 0.9

	// By index 2 the running chunk is 62 chars, over the 50-char max, so
	// even a candidate far below the confidence bar is forced through.
	sentences := makeSentences(5, 20)
	candidates := []Candidate{{Index: 3, Confidence: 0.1}}

	spans := resolveBoundaries(sentences, candidates, cfg)
	if len(spans) < 2 {
		t.Fatalf("got %v, want a forced cut", spans)
	}
	if spans[0].End > 3 {
		t.Errorf("first span ends at %d, want a cut at or before 3", spans[0].End)
	}
}

func TestResolveBoundariesForcedCutWithoutCandidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 10
	cfg.MaxChunkSize = 50
	cfg.MinSentencesPerChunk = 1

	sentences := makeSentences(6, 20)
	spans := resolveBoundaries(sentences, nil, cfg)

	if len(spans) < 2 {
		t.Fatalf("got %v, want forced size cuts", spans)
	}
	for _, sp := range spans[:len(spans)-1] {
		if sp.Confidence != forcedCutConfidence {
			t.Errorf("forced cut confidence = %v, want %v", sp.Confidence, forcedCutConfidence)
		}
	}
}

func TestResolveBoundariesFoldsUndersizedTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 10
	cfg.MaxChunkSize = 10000
	cfg.MinSentencesPerChunk = 2
	cfg.BoundaryConfidenceThreshold = 0.6

	// A confident cut before the last sentence would leave a one-sentence
	// tail, under the two-sentence minimum. The tail folds into the
	// previous span instead of standing alone.
	sentences := makeSentences(5, 20)
	candidates := []Candidate{{Index: 4, Confidence: 0.9}}

	spans := resolveBoundaries(sentences, candidates, cfg)
	last := spans[len(spans)-1]
	if last.End != len(sentences) {
		t.Fatalf("last span = %v, must end at the final sentence", last)
	}
	if last.End-last.Start < cfg.MinSentencesPerChunk {
		t.Errorf("tail span %v has fewer than %d sentences", last, cfg.MinSentencesPerChunk)
	}
	if last.Confidence != 1 {
		t.Errorf("final span confidence = %v, want 1", last.Confidence)
	}
}

func TestSizeOnlySpans(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetChunkSize = 50
	cfg.MinSentencesPerChunk = 2

	sentences := makeSentences(7, 20)
	spans := sizeOnlySpans(sentences, cfg)

	if len(spans) < 2 {
		t.Fatalf("got %v, want multiple spans", spans)
	}
	// Spans must tile the document: contiguous, no gaps.
	if spans[0].Start != 0 {
		t.Errorf("first span starts at %d", spans[0].Start)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start != spans[i-1].End {
			t.Errorf("gap between span %d and %d: %v", i-1, i, spans)
		}
	}
	if spans[len(spans)-1].End != len(sentences) {
		t.Error("last span must end at the final sentence")
	}
	for _, sp := range spans {
		if sp.End-sp.Start < cfg.MinSentencesPerChunk {
			t.Errorf("span %v has fewer than %d sentences", sp, cfg.MinSentencesPerChunk)
		}
	}
}
