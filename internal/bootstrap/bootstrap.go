package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mzolotarev/notegraph/internal/config"
	"github.com/mzolotarev/notegraph/internal/core/ports"
	"github.com/mzolotarev/notegraph/internal/core/usecase"
	"github.com/mzolotarev/notegraph/internal/infrastructure/chunking"
	"github.com/mzolotarev/notegraph/internal/infrastructure/graph/neo4j"
	"github.com/mzolotarev/notegraph/internal/infrastructure/llm/openai"
	"github.com/mzolotarev/notegraph/internal/infrastructure/processor/imagefile"
	"github.com/mzolotarev/notegraph/internal/infrastructure/processor/markdown"
	"github.com/mzolotarev/notegraph/internal/infrastructure/processor/pdffile"
	"github.com/mzolotarev/notegraph/internal/infrastructure/processor/spreadsheet"
	"github.com/mzolotarev/notegraph/internal/infrastructure/processor/web"
	"github.com/mzolotarev/notegraph/internal/infrastructure/queue/nats"
	"github.com/mzolotarev/notegraph/internal/infrastructure/repository/postgres"
	"github.com/mzolotarev/notegraph/internal/infrastructure/resilience"
	"github.com/mzolotarev/notegraph/internal/infrastructure/storage/localfs"
	"github.com/mzolotarev/notegraph/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.NoteRepository
	IngestUC  ports.NoteIngestor
	ProcessUC ports.NoteProcessor
	QueryUC   ports.QuestionAnswerer
	NotesUC   *usecase.NotesUseCase

	closeFn func(context.Context)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewNoteRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultPolicy()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	openaiClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel, cfg.OpenAIRateRPS)
	embedder := openai.NewEmbedder(openaiClient)
	generator := openai.NewGenerator(openaiClient)

	var extractor ports.EntityExtractor
	if cfg.EntityExtractionOn {
		extractor = openai.NewEntityExtractor(openaiClient)
	}

	var graph ports.GraphStore
	if cfg.Neo4jURI != "" {
		graph, err = neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
	} else {
		slog.Info("graph store disabled, answers will not include related notes")
	}

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	registry := usecase.NewProcessorRegistry(
		web.NewFetcher(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, storage),
		markdown.NewParser(),
		pdffile.NewParser(),
		spreadsheet.NewParser(),
		imagefile.NewParser(),
	)

	coordinator := usecase.NewIngestionCoordinator(chunker, embedder, vectorDB)
	ingestUC := usecase.NewAddSourceUseCase(registry, repo, queue)
	processUC := usecase.NewProcessNoteUseCase(repo, coordinator, extractor, graph)
	queryUC := usecase.NewQueryEngine(embedder, vectorDB, generator, expanderOrNil(graph), usecase.QueryOptions{
		TopK:             cfg.QueryTopK,
		MinSimilarity:    cfg.MinSimilarity,
		MaxContextChunks: cfg.MaxContextChunks,
	})
	notesUC := usecase.NewNotesUseCase(repo, vectorDB, graph)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,
		NotesUC:   notesUC,

		closeFn: func(ctx context.Context) {
			queue.Close()
			if graph != nil {
				if closer, ok := graph.(interface{ Close(context.Context) error }); ok {
					_ = closer.Close(ctx)
				}
			}
			_ = db.Close()
		},
	}, nil
}

// expanderOrNil avoids handing the query engine a typed-nil interface.
func expanderOrNil(graph ports.GraphStore) ports.GraphExpander {
	if graph == nil {
		return nil
	}
	return graph
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
