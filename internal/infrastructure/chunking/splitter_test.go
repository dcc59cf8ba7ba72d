package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(100, 10)
	if got := s.Split("   \n\t  "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	s := NewSplitter(500, 50)
	text := "  Paragraph one.\n\nParagraph two.  "

	got := s.Split(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(got), got)
	}
	if got[0] != "Paragraph one.\n\nParagraph two." {
		t.Fatalf("expected trimmed input as single chunk, got %q", got[0])
	}
}

func TestSplitMergesParagraphsUpToBudget(t *testing.T) {
	s := NewSplitter(30, 0)
	text := "alpha beta\n\ngamma delta\n\nthis paragraph pushes past the budget easily"

	got := s.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 chunks, got %v", got)
	}
	if got[0] != "alpha beta\ngamma delta" {
		t.Fatalf("expected first two paragraphs merged with newline, got %q", got[0])
	}
}

func TestSplitOverlapSeedsNextChunk(t *testing.T) {
	s := NewSplitter(30, 8)
	first := "one two three four five six"
	second := "seven eight nine ten eleven"
	text := first + "\n\n" + second

	got := s.Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(got), got)
	}
	if got[0] != first {
		t.Fatalf("expected first chunk %q, got %q", first, got[0])
	}

	wantSeed := first[len(first)-8:]
	if !strings.HasPrefix(got[1], wantSeed+"\n") {
		t.Fatalf("expected second chunk to start with overlap %q, got %q", wantSeed, got[1])
	}
	if !strings.HasSuffix(got[1], second) {
		t.Fatalf("expected second chunk to end with %q, got %q", second, got[1])
	}
}

func TestSplitOversizedParagraphFallsBackToSentences(t *testing.T) {
	s := NewSplitter(46, 0)
	text := "First sentence here. Second sentence follows. Third one closes the paragraph.\n\nshort"

	got := s.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected sentence-level chunks, got %v", got)
	}
	for _, chunk := range got {
		if strings.Contains(chunk, "\n") {
			t.Fatalf("sentence chunks must not contain paragraph separators: %q", chunk)
		}
	}
	if got[0] != "First sentence here. Second sentence follows." {
		t.Fatalf("expected packed sentences in first chunk, got %q", got[0])
	}
}

func TestSplitOversizedSentenceForcesWindows(t *testing.T) {
	s := NewSplitter(10, 3)
	sentence := strings.Repeat("abcdefg", 5) // 35 runes, no boundaries

	got := s.Split(sentence)
	if len(got) == 0 {
		t.Fatal("expected windows, got none")
	}
	for i, chunk := range got {
		if n := utf8.RuneCountInString(chunk); n > 10 {
			t.Fatalf("window %d has %d runes, limit is 10: %q", i, n, chunk)
		}
	}
	// Each window starts ChunkSize-Overlap runes after the previous one.
	for i := 1; i < len(got); i++ {
		prev := []rune(got[i-1])
		tail := string(prev[7:])
		if !strings.HasPrefix(got[i], tail) {
			t.Fatalf("window %d does not continue overlap of window %d: %q -> %q", i, i-1, got[i-1], got[i])
		}
	}
	joined := got[0]
	for i := 1; i < len(got); i++ {
		joined += string([]rune(got[i])[3:])
	}
	if joined != sentence {
		t.Fatalf("windows do not reassemble the input: %q", joined)
	}
}

func TestSplitUnicodeBoundaries(t *testing.T) {
	s := NewSplitter(4, 0)
	text := "日本語のテキストです"

	got := s.Split(text)
	for _, chunk := range got {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk is not valid UTF-8: %q", chunk)
		}
		if utf8.RuneCountInString(chunk) > 4 {
			t.Fatalf("chunk exceeds rune budget: %q", chunk)
		}
	}
	if strings.Join(got, "") != text {
		t.Fatalf("chunks do not cover input: %v", got)
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(25, 5)
	text := "Alpha beta gamma delta.\n\nEpsilon zeta eta theta.\n\nIota kappa lambda mu nu xi."

	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic chunk %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != 500 {
		t.Fatalf("expected default chunk size 500, got %d", s.ChunkSize)
	}
	if s.Overlap != 0 {
		t.Fatalf("expected negative overlap clamped to 0, got %d", s.Overlap)
	}
}
