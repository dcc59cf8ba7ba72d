package openai

import (
	"fmt"
	"strings"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

const answerSystemPrompt = `You are an assistant that answers questions from a personal knowledge base.

Rules:
1. Use only the numbered reference material provided by the user.
2. If the material is not sufficient, state plainly that the available sources cannot fully answer the question.
3. Do not invent information or add anything that is not in the references.
4. Cite sources inline by their numeric index, like [1] or [2].`

func buildAnswerMessages(question, contextBlock string, sources []domain.RetrievalMatch) []message {
	var sourceList strings.Builder
	for i, s := range sources {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&sourceList, "[%d] %s (similarity %.0f%%)\n", i+1, title, s.Similarity*100)
	}

	user := fmt.Sprintf(`Reference material:
%s
Question: %s

Answer directly from the references above, citing them by index. If they are insufficient, say so explicitly.

Sources:
%s`, contextBlock, question, sourceList.String())

	return []message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: user},
	}
}

const extractionSystemPrompt = `You are a knowledge graph construction assistant. You extract entities and relations from text and output strict JSON only.`

func buildExtractionMessages(title, text string) []message {
	const maxSnippet = 3000
	snippet := []rune(text)
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	if title == "" {
		title = "Untitled"
	}

	user := fmt.Sprintf(`Extract knowledge graph entities and relations from the text below.

Title: %s

Text:
%s

Extract:
1. Important entities (at most 10): people, organizations, concepts, technologies, products, locations, events, fields.
2. Relations between those entities (at most 15).

Output JSON:
{
  "entities": [{"name": "...", "type": "person/organization/concept/technology/product/location/event/field", "description": "..."}],
  "relations": [{"source": "...", "target": "...", "type": "short verb phrase"}]
}

Only extract entities and relations the text explicitly mentions, using the exact names that appear in it.`, title, string(snippet))

	return []message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: user},
	}
}
