package cli

import (
	"path/filepath"

	"florify/config"
	"florify/internal/adapter/cache"
	"florify/internal/adapter/fallback"
	"florify/internal/usecase"
)

// resolvePath anchors relative config paths at the root directory.
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetRootDir(), path)
}

func newImageCache(cfg *config.Config) *cache.DirCache {
	return cache.NewDirCache(resolvePath(cfg.Corpus.CacheDir))
}

func newMatchService(cfg *config.Config) *usecase.MatchService {
	return usecase.NewMatchService(usecase.MatchParams{
		DBPath:    resolvePath(cfg.Corpus.DBPath),
		Dimension: cfg.Corpus.Dimension,
		Threshold: cfg.Match.Threshold,
		Mode:      cfg.Match.Mode,
		Cache:     newImageCache(cfg),
		Selector:  fallback.NewSelector(),
		Logger:    logger,
	})
}
