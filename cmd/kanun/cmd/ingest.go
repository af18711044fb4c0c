package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanunlaw/kanun/internal/segment"
	"github.com/kanunlaw/kanun/internal/store"
)

// ingestOptions holds CLI flags for ingest.
type ingestOptions struct {
	actName   string
	actNumber int
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Segment a statute file and add it to the corpus",
		Long: `Segment a statute text file into section-aligned chunks and persist
them to the corpus database.

The file is split on section and part headers (English and Malay forms),
oversized sections are divided on subsection markers, and undersized
fragments are merged into their predecessor.

Examples:
  kanun ingest contracts_act.txt --act-name "Contracts Act 1950" --act-number 136
  kanun ingest penal_code.txt --act-name "Penal Code" --act-number 574`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.actName, "act-name", "", "Official name of the act (required)")
	cmd.Flags().IntVar(&opts.actNumber, "act-number", 0, "Act number used in chunk ids (required)")
	_ = cmd.MarkFlagRequired("act-name")
	_ = cmd.MarkFlagRequired("act-number")

	return cmd
}

func runIngest(cmd *cobra.Command, path string, root *rootOptions, opts ingestOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read statute file: %w", err)
	}

	counter, err := segment.NewTiktokenCounter("")
	if err != nil {
		return fmt.Errorf("init token counter: %w", err)
	}

	segmenter, err := segment.New(counter)
	if err != nil {
		return err
	}

	chunks := segmenter.Segment(string(data), segment.Metadata{
		ActName:   opts.actName,
		ActNumber: opts.actNumber,
	}, segment.Options{
		MaxTokens: cfg.Chunking.MaxTokens,
		MinTokens: cfg.Chunking.MinTokens,
	})
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks produced from %s", path)
	}

	chunkStore, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = chunkStore.Close() }()

	if err := chunkStore.SaveChunks(cmd.Context(), chunks); err != nil {
		return err
	}

	slog.Info("ingest_completed",
		slog.String("act_name", opts.actName),
		slog.Int("act_number", opts.actNumber),
		slog.Int("chunks", len(chunks)))

	var totalTokens, maxTokens int
	for _, c := range chunks {
		totalTokens += c.TokenCount
		if c.TokenCount > maxTokens {
			maxTokens = c.TokenCount
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ingested %s (Act %d)\n", opts.actName, opts.actNumber)
	fmt.Fprintf(out, "  Chunks:     %d\n", len(chunks))
	fmt.Fprintf(out, "  Tokens:     %d total, %d avg, %d max\n",
		totalTokens, totalTokens/len(chunks), maxTokens)
	fmt.Fprintf(out, "  Database:   %s\n", cfg.Storage.DBPath)

	return nil
}
