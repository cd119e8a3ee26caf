package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"florify/internal/domain"
)

var (
	matchKey       string
	matchEmbedding string
	matchIndex     int
	matchThreshold float64
	matchJSON      bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match an empty floorplan against the corpus",
	Long: `Match resolves the most similar filled floorplan. Supply a precomputed
query embedding (JSON array file) for a real similarity search, a stable key
for the deterministic fallback, or an explicit row index to bypass search.

Examples:
  florify match --embedding query.json
  florify match --key garden-42
  florify match --index 310 --json`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringVarP(&matchKey, "key", "k", "", "stable key for deterministic fallback selection")
	matchCmd.Flags().StringVarP(&matchEmbedding, "embedding", "e", "", "JSON file holding the query embedding")
	matchCmd.Flags().IntVarP(&matchIndex, "index", "i", -1, "corpus row to return directly (bypasses search)")
	matchCmd.Flags().Float64VarP(&matchThreshold, "threshold", "t", 0, "similarity threshold (default from config)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "output as JSON")
}

func runMatch(cmd *cobra.Command, args []string) error {
	svc := newMatchService(GetConfig())

	var (
		result *domain.MatchResult
		err    error
	)

	switch {
	case matchIndex >= 0:
		result, err = svc.MatchByIndex(matchIndex)
	case matchEmbedding != "":
		var query []float32
		data, readErr := os.ReadFile(matchEmbedding)
		if readErr != nil {
			return fmt.Errorf("failed to read embedding file: %w", readErr)
		}
		if err := json.Unmarshal(data, &query); err != nil {
			return fmt.Errorf("failed to parse embedding file: %w", err)
		}
		result, err = svc.MatchByEmbedding(query, matchThreshold)
	default:
		result, err = svc.MatchByKey(matchKey)
	}
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	if matchJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if result == nil {
		fmt.Println("No match found.")
		return nil
	}

	fmt.Printf("Matched row %d: %s (similarity %.4f", result.Index, result.FilledFilename, result.Similarity)
	if result.Simulated {
		fmt.Print(", simulated")
	}
	fmt.Println(")")
	if result.Err != "" {
		fmt.Printf("Warning: %s\n", result.Err)
	} else {
		fmt.Printf("Image: %s, %d base64 bytes\n", result.ContentType, len(result.ImageBase64))
	}

	return nil
}
