package port

// RowSelector picks a corpus row without a query embedding. Implementations
// must be pure: the same key and corpus size always yield the same row
// (empty keys excepted, where a random row is allowed).
type RowSelector interface {
	// Select maps a stable external key to a corpus row in [0, n).
	Select(key string, n int) (int, error)

	// CosmeticSimilarity produces the simulated score reported alongside a
	// fallback selection. It is never used for threshold decisions.
	CosmeticSimilarity(key, filename string) float64
}
