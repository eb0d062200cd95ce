// Command cleave ingests documents into a vector store with semantic
// boundary chunking and retrieves them with article-aware context expansion.
//
// Usage:
//
//	cleave ingest <files...>
//	cleave search <query>
//	cleave context <query>
//	cleave article <query>
//	cleave reconstruct <doc-id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	cleave "github.com/nevindra/cleave"
	"github.com/nevindra/cleave/chunk"
	"github.com/nevindra/cleave/ingest"
	"github.com/nevindra/cleave/internal/config"
	"github.com/nevindra/cleave/observer"
	"github.com/nevindra/cleave/provider/resolve"
	"github.com/nevindra/cleave/retrieve"
	memstore "github.com/nevindra/cleave/store/memory"
	pgstore "github.com/nevindra/cleave/store/postgres"
	sqlitestore "github.com/nevindra/cleave/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.Load(os.Getenv("CLEAVE_CONFIG"))
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 1. Embedding provider
	embed, err := resolve.EmbeddingProvider(resolve.Config{
		Provider:      cfg.Embedding.Provider,
		APIKey:        cfg.Embedding.APIKey,
		RemoteModel:   cfg.Embedding.RemoteModel,
		RemoteBaseURL: cfg.Embedding.BaseURL,
		LocalBaseURL:  cfg.Embedding.LocalURL,
		Dimensions:    cfg.Embedding.Dimensions,
		BatchSize:     cfg.Embedding.BatchSize,
		BatchDelay:    time.Duration(cfg.Embedding.BatchDelayMs) * time.Millisecond,
		MaxInputChars: cfg.Embedding.MaxInputChars,
		MaxRetries:    cfg.Embedding.MaxRetries,
		RPM:           cfg.Embedding.RPM,
		TPM:           cfg.Embedding.TPM,
	}, logger)
	if err != nil {
		log.Fatal(err)
	}

	// 2. Observability
	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer shutdown(ctx)
		embed = observer.WrapEmbedding(embed, inst)
	}

	// 3. Store
	store, cleanup, err := openStore(ctx, cfg.Store, embed)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()
	if inst != nil {
		store = observer.WrapStore(store, cfg.Store.Driver, inst)
	}

	// 4. Chunker + pipeline + retriever
	chunker := chunk.New(embed, chunk.WithConfig(chunkConfig(cfg.Chunking))).WithLogger(logger)
	pipeline := ingest.NewPipeline(store, chunker,
		ingest.WithLegacyFallback(cfg.Chunking.FallbackToLegacyOnError),
		ingest.WithLogger(logger),
	)
	retriever := retrieve.New(store,
		retrieve.WithContextWindow(cfg.Retrieval.ContextWindow),
		retrieve.WithMaxSiblings(cfg.Retrieval.MaxSiblings),
		retrieve.WithCompletenessWeight(cfg.Retrieval.CompletenessWeight),
		retrieve.WithLogger(logger),
	)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "ingest":
		err = runIngest(ctx, pipeline, inst, args)
	case "search":
		err = runSearch(ctx, retriever, cfg.Retrieval.TopK, args)
	case "context":
		err = runContext(ctx, retriever, cfg.Retrieval.TopK, args)
	case "article":
		err = runArticle(ctx, retriever, args)
	case "reconstruct":
		err = runReconstruct(ctx, retriever, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cleave <ingest|search|context|article|reconstruct> [args]")
}

// chunkConfig maps file configuration onto the chunker's Config, keeping the
// chunker's own marker defaults when the file does not override them.
func chunkConfig(c config.ChunkingConfig) chunk.Config {
	cfg := chunk.DefaultConfig()
	cfg.MinChunkSize = c.MinChunkSize
	cfg.MaxChunkSize = c.MaxChunkSize
	cfg.TargetChunkSize = c.TargetChunkSize
	cfg.MinSentencesPerChunk = c.MinSentencesPerChunk
	cfg.MinSentenceLength = c.MinSentenceLength
	cfg.SimilarityThreshold = c.SimilarityThreshold
	cfg.BoundaryConfidenceThreshold = c.BoundaryConfidenceThreshold
	cfg.LocalWindow = c.LocalWindow
	cfg.OverlapSentences = c.OverlapSentences
	cfg.OverlapRatio = c.OverlapRatio
	cfg.EnableDomainOptimization = c.EnableDomainOptimization
	cfg.TransitionPenalty = c.TransitionPenalty
	cfg.DataContinuityBonus = c.DataContinuityBonus
	if len(c.TransitionMarkers) > 0 {
		cfg.TransitionMarkers = c.TransitionMarkers
	}
	if len(c.ContinuityMarkers) > 0 {
		cfg.ContinuityMarkers = c.ContinuityMarkers
	}
	return cfg
}

func openStore(ctx context.Context, cfg config.StoreConfig, embed cleave.EmbeddingProvider) (cleave.VectorStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memstore.New(embed), func() {}, nil
	case "sqlite":
		s := sqlitestore.New(cfg.Path, embed)
		if err := s.Init(ctx); err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		s := pgstore.New(pool, embed)
		if err := s.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func runIngest(ctx context.Context, p *ingest.Pipeline, inst *observer.Instruments, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("ingest: no files given")
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum, err := p.IngestFile(ctx, content, filepath.Base(path), nil)
		if err != nil {
			return err
		}
		for _, doc := range sum.Documents {
			if inst != nil {
				observer.RecordIngest(ctx, inst, doc.DocumentID, doc.Method, doc.ChunkCount)
			}
			fmt.Printf("%s\t%s\t%s\t%d chunks\n", path, doc.DocumentID, doc.Method, doc.ChunkCount)
		}
	}
	return nil
}

func runSearch(ctx context.Context, r *retrieve.Retriever, topK int, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	k := fs.Int("k", topK, "number of results")
	method := fs.String("method", "", "restrict to a chunking method")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("search: expected one query argument")
	}

	var opts []retrieve.SearchOption
	if *method != "" {
		opts = append(opts, retrieve.WithMethod(*method))
	}
	results, err := r.Search(ctx, fs.Arg(0), *k, opts...)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runContext(ctx context.Context, r *retrieve.Retriever, topK int, args []string) error {
	fs := flag.NewFlagSet("context", flag.ExitOnError)
	k := fs.Int("k", topK, "number of primary results")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("context: expected one query argument")
	}

	results, err := r.SearchWithContext(ctx, fs.Arg(0), *k)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runArticle(ctx context.Context, r *retrieve.Retriever, args []string) error {
	fs := flag.NewFlagSet("article", flag.ExitOnError)
	n := fs.Int("n", 3, "number of articles")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("article: expected one query argument")
	}

	articles, err := r.SearchArticles(ctx, fs.Arg(0), *n)
	if err != nil {
		return err
	}
	return printJSON(articles)
}

func runReconstruct(ctx context.Context, r *retrieve.Retriever, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("reconstruct: expected one document id")
	}
	text, err := r.ReconstructDocument(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
