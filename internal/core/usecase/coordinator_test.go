package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

type chunkerFake struct {
	chunks []string
}

func (f *chunkerFake) Split(string) []string { return f.chunks }

type indexEmbedderFake struct {
	inputs []string
	err    error
	short  bool
}

func (f *indexEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.inputs = texts
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (f *indexEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0}, nil
}

type recordingIndexFake struct {
	deleted []string
	records []domain.ChunkRecord
	addErr  error
}

func (f *recordingIndexFake) AddRecords(_ context.Context, records []domain.ChunkRecord) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.records = append(f.records, records...)
	return nil
}

func (f *recordingIndexFake) Search(context.Context, []float32, int) ([]domain.RetrievalMatch, error) {
	return nil, nil
}

func (f *recordingIndexFake) DeleteByNote(_ context.Context, noteID string) error {
	f.deleted = append(f.deleted, noteID)
	return nil
}

func (f *recordingIndexFake) Count(context.Context) (int, error) { return 0, nil }

func TestIndexNoteEmptyContent(t *testing.T) {
	index := &recordingIndexFake{}
	coord := NewIngestionCoordinator(&chunkerFake{}, &indexEmbedderFake{}, index)

	ids, err := coord.IndexNote(context.Background(), &domain.Note{ID: "note_a", Content: "  \n "})
	if err != nil {
		t.Fatalf("IndexNote() error = %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no records for empty content, got %v", ids)
	}
	if len(index.deleted) != 0 {
		t.Fatal("empty content must not touch the index")
	}
}

func TestIndexNoteBuildsSequentialRecordIDs(t *testing.T) {
	index := &recordingIndexFake{}
	embedder := &indexEmbedderFake{}
	coord := NewIngestionCoordinator(&chunkerFake{chunks: []string{"first", "second"}}, embedder, index)

	note := &domain.Note{ID: "note_a", Title: "Graphs", Content: "body"}
	ids, err := coord.IndexNote(context.Background(), note)
	if err != nil {
		t.Fatalf("IndexNote() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "note_a_chunk_0" || ids[1] != "note_a_chunk_1" {
		t.Fatalf("unexpected record ids: %v", ids)
	}

	if len(index.records) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(index.records))
	}
	rec := index.records[1]
	if rec.NoteID != "note_a" || rec.ChunkIndex != 1 || rec.ChunkTotal != 2 || rec.Text != "second" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Metadata["title"] != "Graphs" {
		t.Fatalf("expected title metadata, got %v", rec.Metadata)
	}
}

func TestIndexNotePrefixesTitleForEmbedding(t *testing.T) {
	embedder := &indexEmbedderFake{}
	coord := NewIngestionCoordinator(&chunkerFake{chunks: []string{"chunk"}}, embedder, &recordingIndexFake{})

	note := &domain.Note{ID: "note_a", Title: "Graphs", Content: "body"}
	if _, err := coord.IndexNote(context.Background(), note); err != nil {
		t.Fatalf("IndexNote() error = %v", err)
	}
	if len(embedder.inputs) != 1 || embedder.inputs[0] != "Graphs\n\nchunk" {
		t.Fatalf("expected title-prefixed embedding input, got %v", embedder.inputs)
	}
}

func TestIndexNoteReplacesExistingRecords(t *testing.T) {
	index := &recordingIndexFake{}
	coord := NewIngestionCoordinator(&chunkerFake{chunks: []string{"chunk"}}, &indexEmbedderFake{}, index)

	note := &domain.Note{ID: "note_a", Content: "body"}
	if _, err := coord.IndexNote(context.Background(), note); err != nil {
		t.Fatalf("IndexNote() error = %v", err)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "note_a" {
		t.Fatalf("expected prior records deleted before re-add, got %v", index.deleted)
	}
}

func TestIndexNoteEmbedErrorTyped(t *testing.T) {
	embedder := &indexEmbedderFake{err: errors.New("model down")}
	coord := NewIngestionCoordinator(&chunkerFake{chunks: []string{"chunk"}}, embedder, &recordingIndexFake{})

	_, err := coord.IndexNote(context.Background(), &domain.Note{ID: "note_a", Content: "body"})
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

func TestIndexNoteVectorCountMismatch(t *testing.T) {
	embedder := &indexEmbedderFake{short: true}
	coord := NewIngestionCoordinator(&chunkerFake{chunks: []string{"a", "b"}}, embedder, &recordingIndexFake{})

	_, err := coord.IndexNote(context.Background(), &domain.Note{ID: "note_a", Content: "body"})
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected vectors/chunks mismatch error, got %v", err)
	}
}
