package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

type repoFake struct {
	notes      map[string]*domain.Note
	statuses   []domain.NoteStatus
	lastError  string
	vectorIDs  []string
	upsertErr  error
	getErr     error
	updateErr  error
	deleteErr  error
	countValue int
}

func newRepoFake() *repoFake {
	return &repoFake{notes: make(map[string]*domain.Note)}
}

func (f *repoFake) Upsert(_ context.Context, note *domain.Note) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	copied := *note
	f.notes[note.ID] = &copied
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Note, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	note, ok := f.notes[id]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return note, nil
}

func (f *repoFake) List(context.Context) ([]domain.Note, error) {
	out := make([]domain.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, *n)
	}
	return out, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, id string, status domain.NoteStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statuses = append(f.statuses, status)
	f.lastError = errMessage
	if note, ok := f.notes[id]; ok {
		note.Status = status
		note.Error = errMessage
	}
	return nil
}

func (f *repoFake) SaveIndexing(_ context.Context, id string, vectorIDs []string) error {
	f.vectorIDs = vectorIDs
	if note, ok := f.notes[id]; ok {
		note.VectorIDs = vectorIDs
	}
	return nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.notes, id)
	return nil
}

func (f *repoFake) Count(context.Context) (int, error) { return f.countValue, nil }

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishNoteAdded(_ context.Context, noteID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, noteID)
	return nil
}

func (f *queueFake) SubscribeNoteAdded(context.Context, func(context.Context, string) error) error {
	return nil
}

type processorFake struct {
	prefix string
	note   *domain.Note
	err    error
}

func (f *processorFake) CanHandle(source string) bool { return strings.HasPrefix(source, f.prefix) }

func (f *processorFake) Process(_ context.Context, source string) (*domain.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.note != nil {
		return f.note, nil
	}
	return &domain.Note{
		ID:         domain.NoteID(domain.SourceWeb, source),
		SourceType: domain.SourceWeb,
		SourcePath: source,
		Title:      "title",
		Content:    "content",
	}, nil
}

func (f *processorFake) ExtractText(note *domain.Note) string { return note.Content }

func TestAddSourceEmptyInput(t *testing.T) {
	uc := NewAddSourceUseCase(NewProcessorRegistry(), newRepoFake(), &queueFake{})
	if _, err := uc.AddSource(context.Background(), "  "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAddSourceNoProcessor(t *testing.T) {
	registry := NewProcessorRegistry(&processorFake{prefix: "https://"})
	uc := NewAddSourceUseCase(registry, newRepoFake(), &queueFake{})

	_, err := uc.AddSource(context.Background(), "file.unknown")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAddSourcePersistsAndPublishes(t *testing.T) {
	repo := newRepoFake()
	queue := &queueFake{}
	registry := NewProcessorRegistry(&processorFake{prefix: "https://"})
	uc := NewAddSourceUseCase(registry, repo, queue)

	note, err := uc.AddSource(context.Background(), "https://example.com/page")
	if err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	if note.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", note.Status)
	}
	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
	if _, ok := repo.notes[note.ID]; !ok {
		t.Fatal("expected note persisted")
	}
	if len(queue.published) != 1 || queue.published[0] != note.ID {
		t.Fatalf("expected publish for %s, got %v", note.ID, queue.published)
	}
}

func TestAddSourceStableIDForSameSource(t *testing.T) {
	repo := newRepoFake()
	registry := NewProcessorRegistry(&processorFake{prefix: "https://"})
	uc := NewAddSourceUseCase(registry, repo, &queueFake{})

	first, err := uc.AddSource(context.Background(), "https://example.com/page")
	if err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	second, err := uc.AddSource(context.Background(), "https://example.com/page")
	if err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected stable id, got %s vs %s", first.ID, second.ID)
	}
	if len(repo.notes) != 1 {
		t.Fatalf("expected one stored note, got %d", len(repo.notes))
	}
}

func TestAddSourceFirstProcessorWins(t *testing.T) {
	first := &processorFake{prefix: "https://", note: &domain.Note{ID: "from_first", SourcePath: "x"}}
	second := &processorFake{prefix: "https://", note: &domain.Note{ID: "from_second", SourcePath: "x"}}
	registry := NewProcessorRegistry(first, second)
	uc := NewAddSourceUseCase(registry, newRepoFake(), &queueFake{})

	note, err := uc.AddSource(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	if note.ID != "from_first" {
		t.Fatalf("expected first registered processor to win, got %s", note.ID)
	}
}

func TestAddSourcePublishFailure(t *testing.T) {
	registry := NewProcessorRegistry(&processorFake{prefix: "https://"})
	uc := NewAddSourceUseCase(registry, newRepoFake(), &queueFake{err: errors.New("nats down")})

	if _, err := uc.AddSource(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected publish error")
	}
}
