package port

// VectorIndex answers nearest-neighbor queries over row-aligned embeddings.
// Row i of the index corresponds exactly to entry i of the loaded corpus.
type VectorIndex interface {
	// Add appends rows to the index. Rows are L2-normalized defensively even
	// though the corpus artifact stores them normalized.
	Add(rows [][]float32) error

	// Search finds the k nearest rows to the query by inner product.
	// The query is normalized internally; k=1 is the service contract but
	// the index itself accepts any k.
	Search(query []float32, k int) ([]Hit, error)

	// Rows returns the number of indexed rows.
	Rows() int
}

// Hit is a single nearest-neighbor result.
type Hit struct {
	Row   int     // corpus row
	Score float64 // cosine similarity (inner product of unit vectors)
}
