package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/core/ports"
)

// AddSourceUseCase resolves a source against the processor registry,
// persists the resulting note, and hands it off for async processing.
type AddSourceUseCase struct {
	registry *ProcessorRegistry
	repo     ports.NoteRepository
	queue    ports.MessageQueue
}

func NewAddSourceUseCase(
	registry *ProcessorRegistry,
	repo ports.NoteRepository,
	queue ports.MessageQueue,
) *AddSourceUseCase {
	return &AddSourceUseCase{
		registry: registry,
		repo:     repo,
		queue:    queue,
	}
}

func (uc *AddSourceUseCase) AddSource(ctx context.Context, source string) (*domain.Note, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add source", errors.New("empty source"))
	}

	processor := uc.registry.Find(source)
	if processor == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add source",
			fmt.Errorf("no processor for source: %s", source))
	}

	note, err := processor.Process(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("process source: %w", err)
	}
	note.Content = processor.ExtractText(note)

	now := time.Now().UTC()
	note.Status = domain.StatusPending
	note.CreatedAt = now
	note.UpdatedAt = now

	// Upsert keyed on the source-derived id: re-adding the same source
	// replaces the earlier note instead of creating a duplicate.
	if err := uc.repo.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("save note metadata: %w", err)
	}

	if err := uc.queue.PublishNoteAdded(ctx, note.ID); err != nil {
		return nil, fmt.Errorf("publish processing event: %w", err)
	}
	return note, nil
}
