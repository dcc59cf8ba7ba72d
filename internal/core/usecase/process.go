package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/core/ports"
)

// ProcessNoteUseCase runs the worker-side pipeline for one note:
// index its content, then extract entities into the knowledge graph.
type ProcessNoteUseCase struct {
	repo        ports.NoteRepository
	coordinator *IngestionCoordinator
	extractor   ports.EntityExtractor
	graph       ports.GraphStore
}

func NewProcessNoteUseCase(
	repo ports.NoteRepository,
	coordinator *IngestionCoordinator,
	extractor ports.EntityExtractor,
	graph ports.GraphStore,
) *ProcessNoteUseCase {
	return &ProcessNoteUseCase{
		repo:        repo,
		coordinator: coordinator,
		extractor:   extractor,
		graph:       graph,
	}
}

func (uc *ProcessNoteUseCase) ProcessByID(ctx context.Context, noteID string) error {
	if err := uc.repo.UpdateStatus(ctx, noteID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.pipeline(ctx, noteID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, noteID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, noteID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessNoteUseCase) pipeline(ctx context.Context, noteID string) error {
	note, err := uc.repo.GetByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("fetch note by id: %w", err)
	}

	recordIDs, err := uc.coordinator.IndexNote(ctx, note)
	if err != nil {
		return fmt.Errorf("index note: %w", err)
	}

	if err := uc.repo.SaveIndexing(ctx, note.ID, recordIDs); err != nil {
		return fmt.Errorf("save vector ids: %w", err)
	}

	// Graph enrichment never fails processing: the note is already
	// searchable, entity extraction only adds related-note links.
	uc.enrichGraph(ctx, note)
	return nil
}

func (uc *ProcessNoteUseCase) enrichGraph(ctx context.Context, note *domain.Note) {
	if uc.extractor == nil || uc.graph == nil {
		return
	}

	entities, relations, err := uc.extractor.Extract(ctx, note.Title, note.Content)
	if err != nil {
		slog.Warn("entity_extraction_failed", "note_id", note.ID, "error", err)
		return
	}
	if len(entities) == 0 {
		return
	}

	if err := uc.graph.AddEntities(ctx, note.ID, entities); err != nil {
		slog.Warn("graph_add_entities_failed", "note_id", note.ID, "error", err)
		return
	}
	if err := uc.graph.AddRelations(ctx, relations); err != nil {
		slog.Warn("graph_add_relations_failed", "note_id", note.ID, "error", err)
	}
}
