package chunk

import "strings"

// Candidate is a potential cut point: the next chunk would start at
// sentence Index. Confidence combines the depth of the similarity dip and
// its relative drop versus a local window average, clamped to [0,1].
type Candidate struct {
	Index      int
	Confidence float32
}

// span is one resolved chunk interval [Start, End) in sentence indexes.
// Confidence is the confidence of the cut that closed the span; the final
// span of a document always carries maximal confidence.
type span struct {
	Start      int
	End        int
	Confidence float32
}

// Confidence assigned to cuts that were not chosen by the similarity
// profile: forced size cuts and deterministic size-only segmentation.
const forcedCutConfidence = 0.5

// applyDomainHeuristics returns a derived copy of profile with the
// transition penalty and data-continuity bonus applied. The input profile
// is never mutated.
func applyDomainHeuristics(profile []float32, sentences []Sentence, cfg Config) []float32 {
	adjusted := make([]float32, len(profile))
	copy(adjusted, profile)

	for i := range adjusted {
		first := strings.ToLower(sentences[i].Text)
		second := strings.ToLower(sentences[i+1].Text)

		// A transition marker opening the second sentence usually signals
		// a topic shift: lower the similarity to encourage a cut there.
		if containsAny(second, cfg.TransitionMarkers) {
			adjusted[i] *= cfg.TransitionPenalty
		}

		// Both sentences carrying structured-data markers look like one
		// data series: raise the similarity to protect it, capped at 1.
		if containsAny(first, cfg.ContinuityMarkers) && containsAny(second, cfg.ContinuityMarkers) {
			adjusted[i] *= cfg.DataContinuityBonus
			if adjusted[i] > 1 {
				adjusted[i] = 1
			}
		}
	}
	return adjusted
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// detectCandidates finds cut candidates: positions whose similarity is a
// strict local minimum (lower than both neighbors) and below the
// similarity threshold.
func detectCandidates(profile []float32, cfg Config) []Candidate {
	var candidates []Candidate
	for i := 1; i < len(profile)-1; i++ {
		sim := profile[i]
		if sim >= cfg.SimilarityThreshold {
			continue
		}
		if sim >= profile[i-1] || sim >= profile[i+1] {
			continue
		}
		candidates = append(candidates, Candidate{
			// profile[i] compares sentences i and i+1, so the cut puts
			// sentence i+1 at the start of the next chunk.
			Index:      i + 1,
			Confidence: candidateConfidence(profile, i, cfg.LocalWindow),
		})
	}
	return candidates
}

// candidateConfidence scores a dip at profile position i as
// (1 - similarity) * (1 + relative drop vs the local window average),
// clamped to [0,1].
func candidateConfidence(profile []float32, i, window int) float32 {
	sim := profile[i]
	depth := 1 - sim

	lo := max(i-window, 0)
	hi := min(i+window+1, len(profile))
	var sum float32
	count := 0
	for j := lo; j < hi; j++ {
		if j == i {
			continue
		}
		sum += profile[j]
		count++
	}

	conf := depth
	if count > 0 {
		avg := sum / float32(count)
		if avg > 0 && avg > sim {
			conf = depth * (1 + (avg-sim)/avg)
		}
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// resolveBoundaries applies candidates in document order under the size
// constraints. A candidate is accepted only when the chunk-so-far meets the
// minimum size AND either exceeds the maximum size (forcing acceptance
// regardless of confidence) or the candidate clears the confidence
// threshold. Size limits are hard constraints; confidence is a soft
// preference. When a chunk outgrows the maximum with no candidate in reach,
// a cut is forced at the next sentence boundary so the size bound holds for
// anything but a single over-long sentence.
func resolveBoundaries(sentences []Sentence, candidates []Candidate, cfg Config) []span {
	byIndex := make(map[int]float32, len(candidates))
	for _, c := range candidates {
		byIndex[c.Index] = c.Confidence
	}

	var spans []span
	start := 0
	size := len(sentences[0].Text)

	for i := 1; i < len(sentences); i++ {
		minMet := size >= cfg.MinChunkSize && i-start >= cfg.MinSentencesPerChunk
		overMax := size > cfg.MaxChunkSize

		if conf, ok := byIndex[i]; ok && minMet && (overMax || conf >= cfg.BoundaryConfidenceThreshold) {
			spans = append(spans, span{Start: start, End: i, Confidence: conf})
			start = i
			size = len(sentences[i].Text)
			continue
		}

		if overMax && minMet {
			spans = append(spans, span{Start: start, End: i, Confidence: forcedCutConfidence})
			start = i
			size = len(sentences[i].Text)
			continue
		}

		size += 1 + len(sentences[i].Text)
	}

	tailSentences := len(sentences) - start
	if len(spans) > 0 && (size < cfg.MinChunkSize || tailSentences < cfg.MinSentencesPerChunk) {
		// Too small to stand alone; fold into the previous span. The
		// minimum is the hard constraint here, even if the merged span
		// exceeds the maximum.
		spans[len(spans)-1].End = len(sentences)
		spans[len(spans)-1].Confidence = 1
	} else {
		spans = append(spans, span{Start: start, End: len(sentences), Confidence: 1})
	}
	return spans
}

// sizeOnlySpans is the deterministic segmentation used when no embeddings
// are available: accumulate sentences until the target size and the minimum
// sentence count are both reached, then cut.
func sizeOnlySpans(sentences []Sentence, cfg Config) []span {
	var spans []span
	start := 0
	size := 0

	for i, s := range sentences {
		if size > 0 {
			size++
		}
		size += len(s.Text)

		if size >= cfg.TargetChunkSize && i+1-start >= cfg.MinSentencesPerChunk {
			spans = append(spans, span{Start: start, End: i + 1, Confidence: forcedCutConfidence})
			start = i + 1
			size = 0
		}
	}
	if start < len(sentences) {
		remainder := len(sentences) - start
		if remainder < cfg.MinSentencesPerChunk && len(spans) > 0 {
			// Too small to stand alone; fold into the previous span.
			spans[len(spans)-1].End = len(sentences)
		} else {
			spans = append(spans, span{Start: start, End: len(sentences), Confidence: 1})
		}
	}
	if len(spans) > 0 {
		spans[len(spans)-1].Confidence = 1
	}
	return spans
}
