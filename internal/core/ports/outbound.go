package ports

import (
	"context"
	"io"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

// NoteRepository persists note metadata and state.
type NoteRepository interface {
	Upsert(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	List(ctx context.Context) ([]domain.Note, error)
	UpdateStatus(ctx context.Context, id string, status domain.NoteStatus, errMessage string) error
	SaveIndexing(ctx context.Context, id string, vectorIDs []string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ObjectStorage stores raw source snapshots.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes note processing events.
type MessageQueue interface {
	PublishNoteAdded(ctx context.Context, noteID string) error
	SubscribeNoteAdded(ctx context.Context, handler func(context.Context, string) error) error
}

// SourceProcessor turns one kind of source into a note.
type SourceProcessor interface {
	CanHandle(source string) bool
	Process(ctx context.Context, source string) (*domain.Note, error)
	ExtractText(note *domain.Note) string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into retrieval-sized chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorIndex stores chunk records and performs semantic search.
type VectorIndex interface {
	AddRecords(ctx context.Context, records []domain.ChunkRecord) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]domain.RetrievalMatch, error)
	DeleteByNote(ctx context.Context, noteID string) error
	Count(ctx context.Context) (int, error)
}

// AnswerGenerator creates the final user-facing answer from assembled context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, context string, sources []domain.RetrievalMatch) (string, error)
}

// EntityExtractor pulls knowledge-graph entities and relations from text.
type EntityExtractor interface {
	Extract(ctx context.Context, title, text string) ([]domain.Entity, []domain.Relation, error)
}

// GraphExpander returns notes related to the given ones through entity
// co-occurrence. Best-effort: callers degrade to an empty result on error.
type GraphExpander interface {
	RelatedNotes(ctx context.Context, noteIDs []string) ([]string, error)
}

// GraphStore maintains the note/entity co-occurrence graph.
type GraphStore interface {
	GraphExpander
	AddEntities(ctx context.Context, noteID string, entities []domain.Entity) error
	AddRelations(ctx context.Context, relations []domain.Relation) error
	DeleteNote(ctx context.Context, noteID string) error
}
