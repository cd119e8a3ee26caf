package index

import (
	"math"
	"testing"
)

func TestNormalize_UnitNorm(t *testing.T) {
	vectors := [][]float32{
		{3, 4, 0, 0},
		{1, 1, 1, 1},
		{0.001, -0.002, 0.003, -0.004},
		{-7, 2, 9, -1},
	}

	for _, v := range vectors {
		n := Normalize(v)
		var sum float64
		for _, x := range n {
			sum += float64(x) * float64(x)
		}
		if math.Abs(math.Sqrt(sum)-1.0) > 1e-6 {
			t.Errorf("normalized vector %v has norm %f, want 1", v, math.Sqrt(sum))
		}
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	n := Normalize([]float32{0, 0, 0})
	for i, x := range n {
		if x != 0 {
			t.Errorf("expected zero at %d, got %f", i, x)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	if v[0] != 3 || v[1] != 4 {
		t.Errorf("input mutated: %v", v)
	}
}

func TestFlat_SearchNearest(t *testing.T) {
	idx := NewFlat(4)
	err := idx.Add([][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	hits, err := idx.Search([]float32{0.1, 0.9, 0.05, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Row != 1 {
		t.Errorf("expected row 1, got %d", hits[0].Row)
	}
}

func TestFlat_SelfQueryScoresOne(t *testing.T) {
	idx := NewFlat(3)
	if err := idx.Add([][]float32{{2, -5, 7}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	hits, err := idx.Search([]float32{2, -5, 7}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-6 {
		t.Errorf("self query score %f, want ~1.0", hits[0].Score)
	}
}

func TestFlat_KLargerThanRows(t *testing.T) {
	idx := NewFlat(2)
	if err := idx.Add([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits not sorted by descending score")
	}
}

func TestFlat_DimensionMismatch(t *testing.T) {
	idx := NewFlat(4)

	if err := idx.Add([][]float32{{1, 0}}); err == nil {
		t.Error("expected error adding wrong-dimension vector")
	}

	if err := idx.Add([][]float32{{1, 0, 0, 0}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with wrong-dimension query")
	}
}

func TestFlat_EmptyIndex(t *testing.T) {
	idx := NewFlat(2)
	hits, err := idx.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits from empty index, got %v", hits)
	}
}
