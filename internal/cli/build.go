package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"florify/internal/usecase"
)

var (
	buildManifest string
	buildModel    string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the corpus artifact from an embedding manifest",
	Long: `Build reads a JSON manifest of empty/filled floorplan pairs with their
precomputed embeddings, normalizes the vectors, and writes the corpus
artifact. It also audits the PNG cache and reports missing filled images.

Examples:
  florify build -m embeddings.json
  florify build -m embeddings.json --model mobilenet-v2`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildManifest, "manifest", "m", "", "embedding manifest JSON file (required)")
	buildCmd.Flags().StringVar(&buildModel, "model", "mobilenet-v2", "embedding model recorded in corpus metadata")
	buildCmd.MarkFlagRequired("manifest")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dbPath := resolvePath(cfg.Corpus.DBPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	buildUC := usecase.NewBuildUseCase(newImageCache(cfg), buildModel)

	var bar *progressbar.ProgressBar
	progress := func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Building[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(processed)
	}

	result, err := buildUC.Build(buildManifest, dbPath, cfg.Corpus.Dimension, progress)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("Built corpus: %d pairs, dimension %d, in %s\n",
		result.Pairs, result.Dimension, result.Duration.Round(time.Millisecond))
	if len(result.MissingImages) > 0 {
		fmt.Printf("Warning: %d filled images missing from cache:\n", len(result.MissingImages))
		for _, name := range result.MissingImages {
			fmt.Printf("  %s\n", name)
		}
	}

	return nil
}
