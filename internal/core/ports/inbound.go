package ports

import (
	"context"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

// NoteIngestor is the inbound contract for adding sources to the system.
type NoteIngestor interface {
	AddSource(ctx context.Context, source string) (*domain.Note, error)
}

// NoteProcessor is the inbound contract for asynchronous note processing.
type NoteProcessor interface {
	ProcessByID(ctx context.Context, noteID string) error
}

// QuestionAnswerer is the inbound contract for knowledge-base queries.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string, topK int) (*domain.Answer, error)
	Search(ctx context.Context, query string, limit int) ([]domain.RetrievalMatch, error)
}

// NoteReader is the inbound read model for note metadata.
type NoteReader interface {
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	List(ctx context.Context) ([]domain.Note, error)
}

// NoteRemover deletes a note and everything derived from it.
type NoteRemover interface {
	DeleteNote(ctx context.Context, id string) error
}
