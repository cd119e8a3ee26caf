package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"florify/internal/adapter/cache"
	"florify/internal/adapter/fallback"
	"florify/internal/adapter/store"
	"florify/internal/domain"
	"florify/internal/usecase"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	root := t.TempDir()
	dbPath := filepath.Join(root, "corpus.db")
	cacheDir := filepath.Join(root, "png_cache")

	cs, err := store.Create(dbPath)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		vec := make([]float32, 4)
		vec[i] = 1
		require.NoError(t, cs.PutEntry(i, domain.CorpusEntry{
			EmptyID:   fmt.Sprintf("empty/%04d.png", i),
			FilledID:  fmt.Sprintf("filled/%04d.png", i),
			Embedding: vec,
		}))
	}
	cs.Close()

	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "empty"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "filled"), 0755))
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("%04d.png", i)
		require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "filled", name), []byte("png "+name), 0644))
	}

	svc := usecase.NewMatchService(usecase.MatchParams{
		DBPath:    dbPath,
		Dimension: 4,
		Mode:      "embedding",
		Cache:     cache.NewDirCache(cacheDir),
		Selector:  fallback.NewSelector(),
	})

	return New(svc, nil)
}

func postMatch(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleMatch_Embedding(t *testing.T) {
	srv := newTestServer(t)

	w := postMatch(t, srv, `{"gardenId":"garden-1","embedding":[0.9,0.1,0,0]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Match   *struct {
			Index          int     `json:"index"`
			Similarity     float64 `json:"similarity"`
			FilledFilename string  `json:"filledFilename"`
			FilledImageURL string  `json:"filledImageUrl"`
			Simulated      bool    `json:"simulated"`
		} `json:"match"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Match)
	assert.Equal(t, 0, resp.Match.Index)
	assert.Equal(t, "0000.png", resp.Match.FilledFilename)
	assert.False(t, resp.Match.Simulated)
	assert.True(t, strings.HasPrefix(resp.Match.FilledImageURL, "data:image/png;base64,"))
	assert.Greater(t, resp.Match.Similarity, 0.9)
}

func TestHandleMatch_KeyFallback(t *testing.T) {
	srv := newTestServer(t)

	w := postMatch(t, srv, `{"gardenId":"garden-42"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Match)
	assert.True(t, resp.Match.Simulated)
	assert.GreaterOrEqual(t, resp.Match.Similarity, 0.75)
	assert.LessOrEqual(t, resp.Match.Similarity, 0.95)

	// Same garden, same match.
	w2 := postMatch(t, srv, `{"gardenId":"garden-42"}`)
	var resp2 matchResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp2))
	require.NotNil(t, resp2.Match)
	assert.Equal(t, resp.Match.Index, resp2.Match.Index)
	assert.Equal(t, resp.Match.Similarity, resp2.Match.Similarity)
}

func TestHandleMatch_BelowThreshold(t *testing.T) {
	srv := newTestServer(t)

	// Equidistant from two basis vectors: best cosine ~0.707 < 0.99.
	w := postMatch(t, srv, `{"embedding":[1,1,0,0],"threshold":0.99}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Match)
	assert.Equal(t, "No match above threshold", resp.Message)
}

func TestHandleMatch_InvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	w := postMatch(t, srv, `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestHandleMatch_CorpusMissingIsInternalError(t *testing.T) {
	svc := usecase.NewMatchService(usecase.MatchParams{
		DBPath:    filepath.Join(t.TempDir(), "missing.db"),
		Dimension: 4,
		Cache:     cache.NewDirCache(t.TempDir()),
		Selector:  fallback.NewSelector(),
	})
	srv := New(svc, nil)

	w := postMatch(t, srv, `{"gardenId":"garden-1"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	// Internal detail stays out of the response.
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Stats   domain.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 4, resp.Stats.NumPairs)
	assert.Equal(t, 4, resp.Stats.FilledCached)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
