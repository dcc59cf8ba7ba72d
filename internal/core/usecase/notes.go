package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/core/ports"
)

// NotesUseCase is the read/delete surface over stored notes.
type NotesUseCase struct {
	repo  ports.NoteRepository
	index ports.VectorIndex
	graph ports.GraphStore
}

func NewNotesUseCase(repo ports.NoteRepository, index ports.VectorIndex, graph ports.GraphStore) *NotesUseCase {
	return &NotesUseCase{
		repo:  repo,
		index: index,
		graph: graph,
	}
}

func (uc *NotesUseCase) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *NotesUseCase) List(ctx context.Context) ([]domain.Note, error) {
	return uc.repo.List(ctx)
}

// DeleteNote removes a note and cascades: its chunk records in the vector
// index, its graph node, then the metadata row.
func (uc *NotesUseCase) DeleteNote(ctx context.Context, id string) error {
	if _, err := uc.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := uc.index.DeleteByNote(ctx, id); err != nil {
		return fmt.Errorf("delete vector records: %w", err)
	}
	if uc.graph != nil {
		if err := uc.graph.DeleteNote(ctx, id); err != nil {
			slog.Warn("graph_delete_failed", "note_id", id, "error", err)
		}
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note metadata: %w", err)
	}
	return nil
}

type Stats struct {
	Notes   int `json:"notes"`
	Vectors int `json:"vectors"`
}

func (uc *NotesUseCase) Stats(ctx context.Context) (Stats, error) {
	notes, err := uc.repo.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count notes: %w", err)
	}
	vectors, err := uc.index.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count vectors: %w", err)
	}
	return Stats{Notes: notes, Vectors: vectors}, nil
}
