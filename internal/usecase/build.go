package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"florify/internal/adapter/index"
	"florify/internal/adapter/store"
	"florify/internal/domain"
	"florify/internal/port"
)

// ManifestEntry is one row of the corpus build manifest: an empty/filled
// pair and the precomputed embedding of the empty design.
type ManifestEntry struct {
	Empty     string    `json:"empty"`
	Filled    string    `json:"filled"`
	Embedding []float32 `json:"embedding"`
}

// BuildProgressFunc reports corpus build progress.
type BuildProgressFunc func(processed, total int)

// BuildResult summarizes a corpus build.
type BuildResult struct {
	Pairs         int
	Dimension     int
	MissingImages []string
	Duration      time.Duration
}

// BuildUseCase turns an embedding manifest into the bbolt corpus artifact.
// Vectors are L2-normalized before storage so the index can treat inner
// product as cosine similarity.
type BuildUseCase struct {
	cache port.ImageCache
	model string
}

// NewBuildUseCase creates a build use case. The cache is used to audit that
// every referenced filled image is actually present; model is recorded in
// the corpus metadata.
func NewBuildUseCase(cache port.ImageCache, model string) *BuildUseCase {
	return &BuildUseCase{cache: cache, model: model}
}

// Build reads the JSON manifest and writes the corpus artifact at dbPath.
func (u *BuildUseCase) Build(manifestPath, dbPath string, dimension int, progress BuildProgressFunc) (*BuildResult, error) {
	start := time.Now()

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest []ManifestEntry
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(manifest) == 0 {
		return nil, fmt.Errorf("manifest is empty: %s", manifestPath)
	}

	cs, err := store.Create(dbPath)
	if err != nil {
		return nil, err
	}
	defer cs.Close()

	for i, m := range manifest {
		if len(m.Embedding) != dimension {
			return nil, fmt.Errorf("manifest row %d has dimension %d, want %d", i, len(m.Embedding), dimension)
		}

		entry := domain.CorpusEntry{
			EmptyID:   m.Empty,
			FilledID:  m.Filled,
			Embedding: index.Normalize(m.Embedding),
		}
		if err := cs.PutEntry(i, entry); err != nil {
			return nil, fmt.Errorf("failed to store row %d: %w", i, err)
		}

		if progress != nil {
			progress(i+1, len(manifest))
		}
	}

	meta := domain.CorpusMeta{
		NumPairs:  len(manifest),
		Dimension: dimension,
		Model:     u.model,
		BuiltAt:   time.Now().UTC(),
	}
	if err := cs.PutMeta(meta); err != nil {
		return nil, fmt.Errorf("failed to store metadata: %w", err)
	}

	result := &BuildResult{
		Pairs:     len(manifest),
		Dimension: dimension,
		Duration:  time.Since(start),
	}

	// Audit the filled cache so missing artifacts surface at build time
	// instead of as degraded match results later.
	if u.cache != nil {
		cached, err := u.cache.List(port.VariantFilled)
		if err == nil {
			present := make(map[string]bool, len(cached))
			for _, name := range cached {
				present[name] = true
			}
			for _, m := range manifest {
				name := filepath.Base(m.Filled)
				if !present[name] {
					result.MissingImages = append(result.MissingImages, name)
				}
			}
		}
	}

	return result, nil
}
