package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus and image cache statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	svc := newMatchService(GetConfig())

	stats, err := svc.Stats()
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Corpus pairs:   %d\n", stats.NumPairs)
	fmt.Printf("Dimension:      %d\n", stats.Dimension)
	fmt.Printf("Cached empty:   %d\n", stats.EmptyCached)
	fmt.Printf("Cached filled:  %d\n", stats.FilledCached)

	return nil
}
