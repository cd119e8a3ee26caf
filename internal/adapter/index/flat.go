package index

import (
	"fmt"
	"math"
	"sort"

	"florify/internal/port"
)

// Flat is an exact inner-product index over row-aligned unit vectors.
// Brute-force scan: the corpus is ~1k rows and queried for k=1, so an exact
// pass beats maintaining an approximate structure.
type Flat struct {
	dimension int
	rows      [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dimension int) *Flat {
	return &Flat{dimension: dimension}
}

// Add appends rows to the index, normalizing each one. Row order is
// preserved: the i-th added vector is row i.
func (f *Flat) Add(rows [][]float32) error {
	for _, v := range rows {
		if len(v) != f.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", f.dimension, len(v))
		}
		f.rows = append(f.rows, Normalize(v))
	}
	return nil
}

// Search returns the k rows nearest to the query by inner product. With all
// vectors normalized the inner product equals cosine similarity.
func (f *Flat) Search(query []float32, k int) ([]port.Hit, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", f.dimension, len(query))
	}
	if len(f.rows) == 0 {
		return nil, nil
	}

	q := Normalize(query)

	hits := make([]port.Hit, len(f.rows))
	for i, row := range f.rows {
		hits[i] = port.Hit{Row: i, Score: dot(q, row)}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Rows returns the number of indexed rows.
func (f *Flat) Rows() int {
	return len(f.rows)
}

// Normalize returns an L2-normalized copy of v. A zero vector is returned
// unchanged (copied) rather than producing NaNs.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}

	inv := 1.0 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
