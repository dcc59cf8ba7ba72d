package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/core/ports"
)

// IngestionCoordinator turns a note's text into indexed chunk records.
type IngestionCoordinator struct {
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewIngestionCoordinator(
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *IngestionCoordinator {
	return &IngestionCoordinator{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
	}
}

// IndexNote chunks, embeds, and stores a note's content, returning the
// record ids written to the vector index. The note's previous records are
// removed first, so re-ingestion fully regenerates the chunk set instead of
// appending to it.
func (c *IngestionCoordinator) IndexNote(ctx context.Context, note *domain.Note) ([]string, error) {
	if strings.TrimSpace(note.Content) == "" {
		return []string{}, nil
	}

	chunks := c.chunker.Split(note.Content)
	if len(chunks) == 0 {
		return []string{}, nil
	}

	// Prefixing the title gives short chunks document-level context.
	inputs := make([]string, len(chunks))
	for i, chunk := range chunks {
		if note.Title != "" {
			inputs[i] = note.Title + "\n\n" + chunk
		} else {
			inputs[i] = chunk
		}
	}

	vectors, err := c.embedder.Embed(ctx, inputs)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	records := make([]domain.ChunkRecord, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		id := fmt.Sprintf("%s_chunk_%d", note.ID, i)
		ids[i] = id
		records[i] = domain.ChunkRecord{
			ID:         id,
			NoteID:     note.ID,
			ChunkIndex: i,
			ChunkTotal: len(chunks),
			Text:       chunk,
			Vector:     vectors[i],
			Metadata: map[string]string{
				"note_id": note.ID,
				"title":   note.Title,
			},
		}
	}

	if err := c.index.DeleteByNote(ctx, note.ID); err != nil {
		return nil, fmt.Errorf("replace existing records: %w", err)
	}
	if err := c.index.AddRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("store records in vector index: %w", err)
	}
	return ids, nil
}
