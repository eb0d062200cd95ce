// Package chunk implements semantic boundary chunking: documents are split
// into sentences, adjacent sentences are compared by embedding similarity,
// and chunk boundaries are placed at similarity minima subject to hard size
// constraints. Chunks overlap by a bounded number of sentences and carry the
// provenance needed to reconstruct the source document.
package chunk

// Config holds all chunking knobs. It is immutable once passed to New;
// construct one per chunker instead of mutating shared state.
type Config struct {
	// Size constraints in characters. Min and Max are hard limits during
	// boundary resolution; Target drives the size-only legacy segmentation.
	MinChunkSize    int
	MaxChunkSize    int
	TargetChunkSize int

	// MinSentencesPerChunk is both the floor for a cut and the threshold
	// below which a document is returned as a single chunk.
	MinSentencesPerChunk int

	// MinSentenceLength merges any extracted fragment shorter than this
	// into its predecessor, keeping one-word fragments out of the
	// similarity statistics.
	MinSentenceLength int

	// SimilarityThreshold is the ceiling below which a local similarity
	// minimum becomes a boundary candidate.
	SimilarityThreshold float32

	// BoundaryConfidenceThreshold is the soft acceptance bar for a
	// candidate; it is overridden once MaxChunkSize is exceeded.
	BoundaryConfidenceThreshold float32

	// LocalWindow is the number of similarity values on each side of a
	// candidate used for the relative-drop part of its confidence.
	LocalWindow int

	// Overlap controls: a fixed sentence count capped by a ratio of the
	// previous chunk's core length.
	OverlapSentences int
	OverlapRatio     float64

	// Domain optimization. TransitionMarkers in the second sentence of a
	// pair multiply its similarity by TransitionPenalty (< 1, encourages a
	// cut); ContinuityMarkers in both sentences multiply it by
	// DataContinuityBonus (> 1, capped at 1.0, protects data series).
	EnableDomainOptimization bool
	TransitionPenalty        float32
	DataContinuityBonus      float32
	TransitionMarkers        []string
	ContinuityMarkers        []string
}

// DefaultConfig returns the process-wide defaults. Heuristic constants live
// here, not inline, so they can be retuned per content domain.
func DefaultConfig() Config {
	return Config{
		MinChunkSize:                200,
		MaxChunkSize:                1500,
		TargetChunkSize:             800,
		MinSentencesPerChunk:        3,
		MinSentenceLength:           5,
		SimilarityThreshold:         0.75,
		BoundaryConfidenceThreshold: 0.6,
		LocalWindow:                 3,
		OverlapSentences:            2,
		OverlapRatio:                0.3,
		EnableDomainOptimization:    true,
		TransitionPenalty:           0.8,
		DataContinuityBonus:         1.15,
		TransitionMarkers:           defaultTransitionMarkers(),
		ContinuityMarkers:           defaultContinuityMarkers(),
	}
}

// defaultTransitionMarkers are discourse connectors that usually open a new
// topic: contrast and consequence markers.
func defaultTransitionMarkers() []string {
	return []string{
		"however", "meanwhile", "in contrast", "on the other hand",
		"nevertheless", "therefore", "consequently", "as a result",
		"in conclusion", "separately", "turning to", "moving on",
	}
}

// defaultContinuityMarkers flag structured-data sentences (figures, prices,
// percentages) that belong to one series and should not be cut apart.
func defaultContinuityMarkers() []string {
	return []string{"%", "$", "€", "£", "bps", "q1", "q2", "q3", "q4"}
}

// Option configures a Chunker.
type Option func(*Config)

// WithMinChunkSize sets the minimum chunk size in characters.
func WithMinChunkSize(n int) Option {
	return func(c *Config) { c.MinChunkSize = n }
}

// WithMaxChunkSize sets the maximum chunk size in characters.
func WithMaxChunkSize(n int) Option {
	return func(c *Config) { c.MaxChunkSize = n }
}

// WithTargetChunkSize sets the target size used by size-only segmentation.
func WithTargetChunkSize(n int) Option {
	return func(c *Config) { c.TargetChunkSize = n }
}

// WithMinSentencesPerChunk sets the minimum sentences per chunk.
func WithMinSentencesPerChunk(n int) Option {
	return func(c *Config) { c.MinSentencesPerChunk = n }
}

// WithSimilarityThreshold sets the similarity ceiling for candidates.
func WithSimilarityThreshold(v float32) Option {
	return func(c *Config) { c.SimilarityThreshold = v }
}

// WithBoundaryConfidenceThreshold sets the soft confidence bar.
func WithBoundaryConfidenceThreshold(v float32) Option {
	return func(c *Config) { c.BoundaryConfidenceThreshold = v }
}

// WithOverlap sets the fixed sentence overlap and its ratio cap.
func WithOverlap(sentences int, ratio float64) Option {
	return func(c *Config) {
		c.OverlapSentences = sentences
		c.OverlapRatio = ratio
	}
}

// WithDomainOptimization toggles the transition/continuity heuristics.
func WithDomainOptimization(enabled bool) Option {
	return func(c *Config) { c.EnableDomainOptimization = enabled }
}

// WithTransitionPenalty sets the similarity multiplier applied when the
// second sentence of a pair opens with a transition marker.
func WithTransitionPenalty(v float32) Option {
	return func(c *Config) { c.TransitionPenalty = v }
}

// WithDataContinuityBonus sets the similarity multiplier applied when both
// sentences of a pair carry a continuity marker.
func WithDataContinuityBonus(v float32) Option {
	return func(c *Config) { c.DataContinuityBonus = v }
}

// WithTransitionMarkers replaces the transition marker list.
func WithTransitionMarkers(markers []string) Option {
	return func(c *Config) { c.TransitionMarkers = markers }
}

// WithContinuityMarkers replaces the continuity marker list.
func WithContinuityMarkers(markers []string) Option {
	return func(c *Config) { c.ContinuityMarkers = markers }
}

// WithConfig replaces the whole config at once. Later options still apply
// on top of it.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}
