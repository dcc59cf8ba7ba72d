package usecase

import (
	"context"
	"testing"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

func TestDeleteNoteCascades(t *testing.T) {
	repo := newRepoFake()
	repo.notes["note_a"] = &domain.Note{ID: "note_a"}
	index := &recordingIndexFake{}
	graph := newGraphFake()
	uc := NewNotesUseCase(repo, index, graph)

	if err := uc.DeleteNote(context.Background(), "note_a"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "note_a" {
		t.Fatalf("expected vector records deleted, got %v", index.deleted)
	}
	if len(graph.deleted) != 1 || graph.deleted[0] != "note_a" {
		t.Fatalf("expected graph node deleted, got %v", graph.deleted)
	}
	if _, ok := repo.notes["note_a"]; ok {
		t.Fatal("expected metadata row deleted")
	}
}

func TestDeleteNoteUnknownID(t *testing.T) {
	uc := NewNotesUseCase(newRepoFake(), &recordingIndexFake{}, nil)
	if err := uc.DeleteNote(context.Background(), "missing"); !domain.IsKind(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDeleteNoteWithoutGraph(t *testing.T) {
	repo := newRepoFake()
	repo.notes["note_a"] = &domain.Note{ID: "note_a"}
	uc := NewNotesUseCase(repo, &recordingIndexFake{}, nil)

	if err := uc.DeleteNote(context.Background(), "note_a"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := newRepoFake()
	repo.countValue = 3
	uc := NewNotesUseCase(repo, &countingIndexFake{count: 12}, nil)

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Notes != 3 || stats.Vectors != 12 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

type countingIndexFake struct {
	recordingIndexFake
	count int
}

func (f *countingIndexFake) Count(context.Context) (int, error) { return f.count, nil }
