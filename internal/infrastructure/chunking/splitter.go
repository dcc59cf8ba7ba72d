package chunking

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const separator = "\n"

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Splitter cuts text into overlapping chunks sized for embedding.
//
// Paragraphs are the primary unit: they are merged left to right until the
// chunk budget is exhausted, and each new chunk is seeded with the trailing
// Overlap characters of the previous one so adjacent chunks share context.
// Oversized paragraphs fall back to sentence splitting, and oversized
// sentences to fixed-size windows.
//
// Overlap >= ChunkSize is a configuration error and must be rejected by the
// caller; the splitter itself does not validate it.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.ChunkSize {
		return []string{strings.TrimSpace(text)}
	}

	chunks := s.mergeParagraphs(splitParagraphs(text))

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *Splitter) mergeParagraphs(paragraphs []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)

		// An oversized paragraph is split on its own; the running chunk is
		// flushed first and its overlap kept as the seed for what follows.
		if paraLen > s.ChunkSize {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, separator))
				overlap := s.overlapSuffix(current)
				current = nil
				currentLen = 0
				if overlap != "" {
					current = []string{overlap}
					currentLen = utf8.RuneCountInString(overlap)
				}
			}
			chunks = append(chunks, s.splitLongParagraph(para)...)
			continue
		}

		if currentLen+paraLen+len(separator) <= s.ChunkSize {
			current = append(current, para)
			currentLen += paraLen + len(separator)
			continue
		}

		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, separator))
		}
		overlap := s.overlapSuffix(current)
		next := make([]string, 0, 2)
		if overlap != "" {
			next = append(next, overlap)
		}
		next = append(next, para)
		current = next
		currentLen = 0
		for _, p := range current {
			currentLen += utf8.RuneCountInString(p) + len(separator)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, separator))
	}
	return chunks
}

// overlapSuffix returns the trailing Overlap characters of the last merged
// paragraph, or the whole paragraph when it is shorter than the overlap.
func (s *Splitter) overlapSuffix(current []string) string {
	if len(current) == 0 || s.Overlap <= 0 {
		return ""
	}
	last := []rune(current[len(current)-1])
	if len(last) <= s.Overlap {
		return string(last)
	}
	return string(last[len(last)-s.Overlap:])
}

func (s *Splitter) splitLongParagraph(paragraph string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	for _, sent := range splitSentences(paragraph) {
		sentLen := utf8.RuneCountInString(sent)

		if currentLen+sentLen <= s.ChunkSize {
			current = append(current, sent)
			currentLen += sentLen
			continue
		}

		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}

		if sentLen > s.ChunkSize {
			chunks = append(chunks, s.sliceWindows(sent)...)
			current = nil
			currentLen = 0
		} else {
			current = []string{sent}
			currentLen = sentLen
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// sliceWindows force-cuts a sentence with no usable boundaries into fixed
// windows of ChunkSize runes advancing ChunkSize-Overlap per step.
func (s *Splitter) sliceWindows(sentence string) []string {
	runes := []rune(sentence)
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// splitSentences breaks text after sentence punctuation followed by
// whitespace; the whitespace itself is consumed.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string

	start := 0
	i := 0
	for i < len(runes) {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			out = append(out, string(runes[start:i+1]))
			i++
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
