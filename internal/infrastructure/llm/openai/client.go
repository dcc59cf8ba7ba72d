package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible API for embeddings and completions.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

func New(baseURL, apiKey, chatModel, embedModel string, requestsPerSecond int) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		executor:   resilience.NewExecutor(resilience.DefaultPolicy()),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			inputs = append(inputs, t)
		}
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": inputs,
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := e.client.execute(ctx, "openai.embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/embeddings", request, &response, "embed")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(response.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, item := range response.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embedding index out of range: %d", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question, contextBlock string, sources []domain.RetrievalMatch) (string, error) {
	return g.client.chat(ctx, buildAnswerMessages(question, contextBlock, sources))
}

type EntityExtractor struct {
	client *Client
}

func NewEntityExtractor(client *Client) *EntityExtractor {
	return &EntityExtractor{client: client}
}

func (x *EntityExtractor) Extract(ctx context.Context, title, text string) ([]domain.Entity, []domain.Relation, error) {
	if len(strings.TrimSpace(text)) < 50 {
		return nil, nil, nil
	}

	raw, err := x.client.chat(ctx, buildExtractionMessages(title, text))
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Entities []struct {
			Name        string `json:"name"`
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"entities"`
		Relations []struct {
			Source string `json:"source"`
			Target string `json:"target"`
			Type   string `json:"type"`
		} `json:"relations"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, nil, fmt.Errorf("parse extraction json: %w", err)
	}

	entities := make([]domain.Entity, 0, len(payload.Entities))
	for _, e := range payload.Entities {
		if e.Name == "" {
			continue
		}
		kind := e.Type
		if kind == "" {
			kind = "concept"
		}
		entities = append(entities, domain.Entity{
			ID:          domain.EntityID(e.Name),
			Name:        e.Name,
			Type:        kind,
			Description: e.Description,
		})
	}

	relations := make([]domain.Relation, 0, len(payload.Relations))
	for _, r := range payload.Relations {
		if r.Source == "" || r.Target == "" {
			continue
		}
		kind := r.Type
		if kind == "" {
			kind = "related_to"
		}
		relations = append(relations, domain.Relation{
			Source: r.Source,
			Target: r.Target,
			Type:   kind,
		})
	}
	return entities, relations, nil
}

func (c *Client) chat(ctx context.Context, messages []message) (string, error) {
	request := map[string]any{
		"model":       c.chatModel,
		"messages":    messages,
		"temperature": 0.3,
		"max_tokens":  1500,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.execute(ctx, "openai.chat", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/chat/completions", request, &response, "chat")
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("chat", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty completion result")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, classifyOpenAIError)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
