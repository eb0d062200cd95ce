package chunk

import (
	cleave "github.com/nevindra/cleave"
)

// assemble turns resolved spans into chunk records. Every chunk after the
// first borrows trailing sentences from the previous chunk's core region:
// the smaller of the fixed sentence overlap and the ratio-bounded overlap
// relative to the previous core length. CoreStart records where the
// borrowed prefix ends so reconstruction can strip it.
//
// embeddings may be nil (legacy path); coherence is then left at zero.
func assemble(docID string, sentences []Sentence, spans []span, embeddings [][]float32, meta map[string]any, cfg Config, method string) []cleave.SemanticChunk {
	chunks := make([]cleave.SemanticChunk, 0, len(spans))

	for k, sp := range spans {
		overlap := 0
		if k > 0 {
			prevCore := spans[k-1].End - spans[k-1].Start
			overlap = min(cfg.OverlapSentences, int(cfg.OverlapRatio*float64(prevCore)))
			overlap = min(overlap, sp.Start)
		}

		overlapStart := sp.Start - overlap
		text := joinSentences(sentences[overlapStart:sp.End])

		overlapChars := 0
		if overlap > 0 {
			// The core region begins after the borrowed sentences and the
			// joining space.
			overlapChars = len(joinSentences(sentences[overlapStart:sp.Start])) + 1
		}

		chunks = append(chunks, cleave.SemanticChunk{
			Text:               text,
			DocumentID:         docID,
			ChunkIndex:         k,
			CoreStart:          sp.Start,
			OverlapLength:      overlap,
			OverlapChars:       overlapChars,
			BoundaryConfidence: sp.Confidence,
			SemanticCoherence:  coherence(embeddings, overlapStart, sp.End),
			SentenceCount:      sp.End - overlapStart,
			Method:             method,
			Metadata:           meta,
		})
	}
	return chunks
}

// coherence is the mean adjacent-sentence cosine similarity of the
// sentences inside one chunk, recomputed locally from the sentence
// embeddings. It is deliberately independent of the (possibly
// domain-adjusted) profile used for boundary detection. A single-sentence
// chunk is maximally coherent by definition.
func coherence(embeddings [][]float32, start, end int) float32 {
	if embeddings == nil || end > len(embeddings) {
		return 0
	}
	if end-start < 2 {
		return 1
	}
	var sum float32
	for i := start; i < end-1; i++ {
		sum += cosineSim(embeddings[i], embeddings[i+1])
	}
	return sum / float32(end-start-1)
}
