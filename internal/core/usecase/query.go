package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/core/ports"
)

const (
	msgNoInformation    = "I could not find relevant information in the knowledge base. Please collect sources on this topic first."
	msgIndexUnavailable = "The knowledge base index is not available right now, so I cannot answer."
)

type QueryOptions struct {
	TopK             int
	MinSimilarity    float64
	MaxContextChunks int
}

func (o QueryOptions) normalize() QueryOptions {
	out := o
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.MinSimilarity <= 0 {
		out.MinSimilarity = 0.6
	}
	if out.MaxContextChunks <= 0 {
		out.MaxContextChunks = 5
	}
	return out
}

// QueryEngine answers questions strictly from indexed notes.
//
// The core policy is "no answer without sufficient evidence": when retrieval
// returns nothing above the similarity threshold, the engine returns a
// well-formed refusal instead of letting the generator improvise.
type QueryEngine struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	generator ports.AnswerGenerator
	expander  ports.GraphExpander
	opts      QueryOptions
}

func NewQueryEngine(
	embedder ports.Embedder,
	index ports.VectorIndex,
	generator ports.AnswerGenerator,
	expander ports.GraphExpander,
	opts QueryOptions,
) *QueryEngine {
	if expander == nil {
		expander = NoopExpander{}
	}
	return &QueryEngine{
		embedder:  embedder,
		index:     index,
		generator: generator,
		expander:  expander,
		opts:      opts.normalize(),
	}
}

func (e *QueryEngine) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("empty question"))
	}
	if topK <= 0 {
		topK = e.opts.TopK
	}
	if e.index == nil {
		return refusal(msgIndexUnavailable), nil
	}

	queryVector, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed question", err)
	}

	matches, err := e.index.Search(ctx, queryVector, topK)
	if err != nil {
		if domain.IsKind(err, domain.ErrIndexUnavailable) {
			return refusal(msgIndexUnavailable), nil
		}
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	if len(matches) == 0 {
		return refusal(msgNoInformation), nil
	}

	kept := filterBySimilarity(matches, e.opts.MinSimilarity)
	if len(kept) == 0 {
		best := matches[0].Similarity
		return refusal(fmt.Sprintf(
			"%s (best match similarity %.2f is below the %.2f threshold)",
			msgNoInformation, best, e.opts.MinSimilarity,
		)), nil
	}

	kept = dedupeByNote(kept, e.opts.MaxContextChunks)
	sources := sourceIDs(kept)
	related := e.relatedNotes(ctx, sources)

	content, err := e.generator.GenerateAnswer(ctx, question, buildContext(kept), kept)
	if err != nil {
		// Retrieval already succeeded, so the sources are still worth
		// returning; the failure is surfaced inline instead of aborting.
		content = fmt.Sprintf("[answer generation failed: %v]", err)
	}

	return &domain.Answer{
		Content:              content,
		Sources:              sources,
		Confidence:           meanSimilarity(kept),
		HasSufficientSources: true,
		RelatedNotes:         related,
		SourceChunks:         kept,
	}, nil
}

func (e *QueryEngine) Search(ctx context.Context, query string, limit int) ([]domain.RetrievalMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("empty query"))
	}
	if limit <= 0 {
		limit = e.opts.TopK
	}

	queryVector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", err)
	}
	matches, err := e.index.Search(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	return matches, nil
}

func (e *QueryEngine) relatedNotes(ctx context.Context, sources []string) []string {
	related, err := e.expander.RelatedNotes(ctx, sources)
	if err != nil {
		slog.Warn("graph_expansion_failed", "error", err)
		return []string{}
	}
	if related == nil {
		related = []string{}
	}
	return related
}

func refusal(message string) *domain.Answer {
	return &domain.Answer{
		Content:              message,
		Sources:              []string{},
		Confidence:           0,
		HasSufficientSources: false,
		RelatedNotes:         []string{},
		SourceChunks:         []domain.RetrievalMatch{},
	}
}

func filterBySimilarity(matches []domain.RetrievalMatch, threshold float64) []domain.RetrievalMatch {
	out := make([]domain.RetrievalMatch, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	return out
}

// dedupeByNote keeps the best match per note, preserving the incoming
// similarity-descending order, capped at limit distinct notes.
func dedupeByNote(matches []domain.RetrievalMatch, limit int) []domain.RetrievalMatch {
	seen := make(map[string]struct{}, len(matches))
	out := make([]domain.RetrievalMatch, 0, limit)
	for _, m := range matches {
		if _, ok := seen[m.NoteID]; ok {
			continue
		}
		seen[m.NoteID] = struct{}{}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}

func sourceIDs(matches []domain.RetrievalMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.NoteID)
	}
	return out
}

func buildContext(matches []domain.RetrievalMatch) string {
	var b strings.Builder
	for i, m := range matches {
		title := m.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "[%d] source: %s\n%s\n\n", i+1, title, m.Text)
	}
	return b.String()
}

// meanSimilarity averages over the kept, deduplicated matches so confidence
// reflects the sources actually cited.
func meanSimilarity(matches []domain.RetrievalMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		sum += m.Similarity
	}
	return sum / float64(len(matches))
}

// NoopExpander stands in when no knowledge graph is configured.
type NoopExpander struct{}

func (NoopExpander) RelatedNotes(context.Context, []string) ([]string, error) {
	return []string{}, nil
}
