package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/embed"
	"github.com/veridoc/veridoc/internal/index"
	"github.com/veridoc/veridoc/internal/pipeline"
)

var corpusTimeout time.Duration

// corpusCmd manages the reference corpus
var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the reference corpus of known-authentic documents",
}

// corpusSeedCmd embeds and stores reference images
var corpusSeedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Embed reference images and store them in the similarity index",
	Long: `Seed walks a directory of known-authentic identity document images,
embeds each with the configured embedding model, and upserts the
vectors into the similarity index. The document side is inferred from
"front"/"back" in the filename.

Example:
  veridoc corpus seed ./reference-ids`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusSeed,
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.AddCommand(corpusSeedCmd)
	corpusSeedCmd.Flags().DurationVar(&corpusTimeout, "timeout", 30*time.Minute, "total seeding timeout")
}

func runCorpusSeed(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), corpusTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("EMBEDDING_API_KEY")
	}

	store, err := index.NewStore(ctx, cfg.Index)
	if err != nil {
		return fmt.Errorf("open similarity index: %w", err)
	}
	defer store.Close()

	embedder := embed.New(cfg.Embedding, cfg.Proxy)

	var seeded, skipped int
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			skipped++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		mime := "image/jpeg"
		if ext == ".png" {
			mime = "image/png"
		} else if ext == ".webp" {
			mime = "image/webp"
		}

		vector, err := embedder.EmbedImage(ctx, mime, data)
		if err != nil {
			return fmt.Errorf("embed %s: %w", path, err)
		}

		filename := filepath.Base(path)
		side := pipeline.InferSide(filename)
		if err := store.Add(ctx, uuid.NewString(), filename, side, vector); err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}

		seeded++
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", filename, side)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d reference images (%d files skipped)\n", seeded, skipped)
	return nil
}
