package domain

import "time"

// CorpusEntry is one empty/filled floorplan pair with the precomputed
// embedding of the empty design. Entries are immutable once loaded.
type CorpusEntry struct {
	EmptyID   string
	FilledID  string
	Embedding []float32
}

// MatchResult is the outcome of a successful (possibly partial) match.
// A missing cached image leaves ImageBase64 empty and Err populated while
// Index, Similarity and FilledFilename remain valid.
type MatchResult struct {
	Index          int     `json:"index"`
	Similarity     float64 `json:"similarity"`
	FilledFilename string  `json:"filledFilename"`
	ImageBase64    string  `json:"filledImageBase64,omitempty"`
	ContentType    string  `json:"contentType,omitempty"`
	// Simulated marks scores produced by the key fallback selector. They are
	// cosmetic values, not measured similarities.
	Simulated bool   `json:"simulated,omitempty"`
	Err       string `json:"error,omitempty"`
}

// CorpusMeta is the optional metadata blob stored alongside the corpus.
type CorpusMeta struct {
	NumPairs  int       `json:"num_pairs"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
}

// Stats summarizes the loaded corpus and its image cache.
type Stats struct {
	NumPairs     int `json:"num_pairs"`
	Dimension    int `json:"dimension"`
	EmptyCached  int `json:"empty_cached"`
	FilledCached int `json:"filled_cached"`
}

// BoundingBox is one detection from the downstream plant-detection stage.
type BoundingBox struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
}
