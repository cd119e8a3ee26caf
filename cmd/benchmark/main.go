package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"florify/config"
	"florify/internal/adapter/index"
	"florify/internal/adapter/store"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding florify.yaml")
	iterations := flag.Int("n", 1000, "Number of searches to run")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	dbPath := cfg.Corpus.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(*dir, dbPath)
	}

	cs, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening corpus: %v\n", err)
		os.Exit(1)
	}
	defer cs.Close()

	entries, _, err := cs.Load(cfg.Corpus.Dimension)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
		os.Exit(1)
	}

	idx := index.NewFlat(cfg.Corpus.Dimension)
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		vectors[i] = e.Embedding
	}
	if err := idx.Add(vectors); err != nil {
		fmt.Fprintf(os.Stderr, "Error building index: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("FLAT INDEX SEARCH BENCHMARK")
	fmt.Printf("Rows: %d, dimension: %d\n\n", idx.Rows(), cfg.Corpus.Dimension)

	// Query with corpus vectors so every search has a known best hit.
	start := time.Now()
	for i := 0; i < *iterations; i++ {
		query := entries[i%len(entries)].Embedding
		if _, err := idx.Search(query, 1); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("Searches:   %d\n", *iterations)
	fmt.Printf("Total:      %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Per search: %s\n", (elapsed / time.Duration(*iterations)).Round(time.Microsecond))
}
