package usecase

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"florify/internal/adapter/cache"
	"florify/internal/adapter/index"
	"florify/internal/adapter/store"
	"florify/internal/domain"
	"florify/internal/port"
)

// DefaultThreshold is the minimum cosine similarity accepted as a match.
const DefaultThreshold = 0.70

// MatchParams configures a MatchService.
type MatchParams struct {
	DBPath    string
	Dimension int
	Threshold float64 // default when a call passes <= 0
	Mode      string  // config.ModeEmbedding or config.ModeFallback
	Cache     port.ImageCache
	Selector  port.RowSelector
	Logger    *zap.Logger
}

// MatchRequest is the generic request served by Match. Embedding, when
// present, must already have the corpus dimension.
type MatchRequest struct {
	Key       string
	Embedding []float32
	Threshold float64
}

// MatchService finds the filled floorplan most similar to a caller-supplied
// empty floorplan. The corpus and its index are loaded once, on first use,
// and are read-only afterwards; concurrent first requests are collapsed by
// a singleflight group so the artifact is read exactly once.
//
// Every operation reports one of three outcomes: a result (possibly partial,
// when the cached image is missing), (nil, nil) for no-match / not-found,
// or an error for hard failures such as a missing corpus artifact.
type MatchService struct {
	dbPath    string
	dimension int
	threshold float64
	mode      string
	cache     port.ImageCache
	selector  port.RowSelector
	logger    *zap.Logger

	loading singleflight.Group
	ready   atomic.Bool
	entries []domain.CorpusEntry
	meta    *domain.CorpusMeta
	index   port.VectorIndex
}

// NewMatchService creates a match service. Loading is deferred to the first
// operation (or an explicit Load call).
func NewMatchService(p MatchParams) *MatchService {
	if p.Threshold <= 0 {
		p.Threshold = DefaultThreshold
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &MatchService{
		dbPath:    p.DBPath,
		dimension: p.Dimension,
		threshold: p.Threshold,
		mode:      p.Mode,
		cache:     p.Cache,
		selector:  p.Selector,
		logger:    p.Logger,
	}
}

// Load hydrates the corpus and builds the index. It is idempotent and safe
// for concurrent callers; after the first success it returns immediately.
func (s *MatchService) Load() error {
	if s.ready.Load() {
		return nil
	}

	_, err, _ := s.loading.Do("load", func() (interface{}, error) {
		if s.ready.Load() {
			return nil, nil
		}

		cs, err := store.Open(s.dbPath)
		if err != nil {
			return nil, err
		}
		defer cs.Close()

		entries, meta, err := cs.Load(s.dimension)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: corpus is empty", store.ErrCorpusArtifact)
		}

		idx := index.NewFlat(s.dimension)
		vectors := make([][]float32, len(entries))
		for i, e := range entries {
			vectors[i] = e.Embedding
		}
		if err := idx.Add(vectors); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrCorpusArtifact, err)
		}

		s.entries = entries
		s.meta = meta
		s.index = idx
		s.ready.Store(true)

		s.logger.Info("blueprint corpus loaded",
			zap.Int("pairs", len(entries)),
			zap.Int("dimension", s.dimension))
		return nil, nil
	})
	return err
}

// Match dispatches a generic request. The fallback selector handles requests
// without an embedding; when the service is configured for fallback mode the
// selector handles everything, regardless of what the request carries.
func (s *MatchService) Match(req MatchRequest) (*domain.MatchResult, error) {
	if s.mode == "fallback" || len(req.Embedding) == 0 {
		return s.MatchByKey(req.Key)
	}
	return s.MatchByEmbedding(req.Embedding, req.Threshold)
}

// MatchByEmbedding finds the nearest corpus row to the query vector.
// A best score below the threshold is a no-match outcome, not an error.
// Passing threshold <= 0 uses the configured default.
func (s *MatchService) MatchByEmbedding(query []float32, threshold float64) (*domain.MatchResult, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	hits, err := s.index.Search(query, 1)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	best := hits[0]
	if best.Score < threshold {
		s.logger.Debug("best match below threshold",
			zap.Int("row", best.Row),
			zap.Float64("score", best.Score),
			zap.Float64("threshold", threshold))
		return nil, nil
	}

	return s.materialize(best.Row, best.Score, false)
}

// MatchByKey resolves a match through the deterministic fallback selector.
// The reported similarity is simulated and flagged as such.
func (s *MatchService) MatchByKey(key string) (*domain.MatchResult, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}

	row, err := s.selector.Select(key, len(s.entries))
	if err != nil {
		return nil, fmt.Errorf("fallback selection failed: %w", err)
	}

	result, err := s.MatchByIndex(row)
	if err != nil || result == nil {
		return result, err
	}

	result.Similarity = s.selector.CosmeticSimilarity(key, result.FilledFilename)
	result.Simulated = true
	return result, nil
}

// MatchByIndex bypasses the search and returns the entry at a given row.
// An out-of-range row is a not-found outcome: (nil, nil).
func (s *MatchService) MatchByIndex(row int) (*domain.MatchResult, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}

	if row < 0 || row >= len(s.entries) {
		return nil, nil
	}
	return s.materialize(row, 1.0, false)
}

// Count returns the number of corpus pairs, loading if necessary.
func (s *MatchService) Count() (int, error) {
	if err := s.Load(); err != nil {
		return 0, err
	}
	return len(s.entries), nil
}

// Entry returns the corpus entry at a row; ok is false when out of range.
func (s *MatchService) Entry(row int) (domain.CorpusEntry, bool) {
	if !s.ready.Load() || row < 0 || row >= len(s.entries) {
		return domain.CorpusEntry{}, false
	}
	return s.entries[row], true
}

// Stats reports corpus and cache sizes.
func (s *MatchService) Stats() (domain.Stats, error) {
	if err := s.Load(); err != nil {
		return domain.Stats{}, err
	}

	st := domain.Stats{
		NumPairs:  len(s.entries),
		Dimension: s.dimension,
	}
	if empty, err := s.cache.List(port.VariantEmpty); err == nil {
		st.EmptyCached = len(empty)
	}
	if filled, err := s.cache.List(port.VariantFilled); err == nil {
		st.FilledCached = len(filled)
	}
	return st, nil
}

// materialize resolves the winning row to a result. A missing cached image
// degrades to a partial result that keeps the metadata; any other cache
// failure is a hard error.
func (s *MatchService) materialize(row int, similarity float64, simulated bool) (*domain.MatchResult, error) {
	entry := s.entries[row]
	filename := filepath.Base(entry.FilledID)

	result := &domain.MatchResult{
		Index:          row,
		Similarity:     similarity,
		FilledFilename: filename,
		Simulated:      simulated,
	}

	data, contentType, err := s.cache.Get(port.VariantFilled, filename)
	if err != nil {
		if errors.Is(err, cache.ErrNotCached) {
			result.Err = fmt.Sprintf("filled image not found: %s", filename)
			s.logger.Warn("cached image missing",
				zap.Int("row", row),
				zap.String("filename", filename))
			return result, nil
		}
		return nil, err
	}

	result.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	result.ContentType = contentType
	return result, nil
}
