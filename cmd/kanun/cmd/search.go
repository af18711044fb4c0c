package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kanunlaw/kanun/internal/config"
	"github.com/kanunlaw/kanun/internal/embed"
	"github.com/kanunlaw/kanun/internal/retrieve"
	"github.com/kanunlaw/kanun/internal/store"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit       int
	method      string
	format      string // "text", "json"
	showContext bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the ingested corpus",
		Long: `Search the ingested statute corpus.

Combines BM25 (keyword) and semantic (embedding) search with Reciprocal
Rank Fusion, or runs a single modality with --method.

Examples:
  kanun search "free consent"
  kanun search "Section 10" --method keyword
  kanun search "remedies for breach" -n 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, root, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = config default)")
	cmd.Flags().StringVarP(&opts.method, "method", "m", "", "Retrieval method: semantic, keyword, hybrid")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.showContext, "context", false, "Print the assembled context block instead of a result list")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, root *rootOptions, opts searchOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	methodName := opts.method
	if methodName == "" {
		methodName = cfg.Search.Method
	}
	method, err := retrieve.ParseMethod(methodName)
	if err != nil {
		return err
	}

	retriever, closeCorpus, err := openRetriever(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeCorpus()

	resp, err := retriever.Retrieve(cmd.Context(), query, opts.limit, method)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if opts.showContext {
		fmt.Fprintln(out, retrieve.FormatContext(resp.Results))
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results.")
	}
	for i, res := range resp.Results {
		cite := res.ActName
		if res.SectionNumber != "" {
			cite += ", Section " + res.SectionNumber
			if res.SectionTitle != "" {
				cite += " - " + res.SectionTitle
			}
		}
		fmt.Fprintf(out, "%d. %s (score %.4f)\n", i+1, cite, res.Score)
		fmt.Fprintf(out, "   %s\n", firstLine(res.Content))
	}
	for _, failed := range resp.Failed {
		fmt.Fprintf(out, "warning: %s search unavailable for this query\n", failed)
	}

	return nil
}

// openRetriever loads the persisted corpus and builds both indices in
// memory. The returned closer releases the index and database handles.
func openRetriever(ctx context.Context, cfg *config.Config) (*retrieve.Retriever, func(), error) {
	chunkStore, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := chunkStore.LoadChunks(ctx)
	if err != nil {
		_ = chunkStore.Close()
		return nil, nil, err
	}
	_ = chunkStore.Close()
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("corpus at %s is empty; run 'kanun ingest' first", cfg.Storage.DBPath)
	}

	keyword, err := store.NewLexicalIndex(chunks)
	if err != nil {
		return nil, nil, err
	}

	embedder := embed.NewCachedEmbedder(embed.NewStaticEmbedder(), embed.DefaultEmbeddingCacheSize)

	vector, err := store.NewHNSWBackend(embedder)
	if err != nil {
		_ = keyword.Close()
		return nil, nil, err
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
		texts[i] = c.Content
	}
	if err := vector.Add(ctx, ids, texts); err != nil {
		_ = keyword.Close()
		return nil, nil, err
	}

	retriever, err := retrieve.NewRetriever(chunks, keyword, vector, retrieve.Config{
		SemanticWeight: cfg.Search.SemanticWeight,
		KeywordWeight:  cfg.Search.KeywordWeight,
		RRFConstant:    cfg.Search.RRFConstant,
		DefaultLimit:   cfg.Search.TopK,
		MaxLimit:       cfg.Search.MaxResults,
	})
	if err != nil {
		_ = keyword.Close()
		return nil, nil, err
	}

	return retriever, func() { _ = keyword.Close() }, nil
}

// firstLine truncates content to a single preview line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 120
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
