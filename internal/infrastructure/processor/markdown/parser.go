package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

var (
	frontMatterRe = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	firstH1Re     = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	codeFenceRe   = regexp.MustCompile("(?m)^```[^\n]*$")
	emphasisRe    = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	inlineCodeRe  = regexp.MustCompile("`([^`]*)`")
	hashtagRe     = regexp.MustCompile(`#([\p{L}][\p{L}\p{N}_-]*)`)
)

type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// Parser processes local Markdown files: YAML front matter for title and
// tags, light markup stripping for the indexable text.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) CanHandle(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasSuffix(lower, ".md") ||
		strings.HasSuffix(lower, ".markdown") ||
		strings.HasSuffix(lower, ".mdown")
}

func (p *Parser) Process(_ context.Context, source string) (*domain.Note, error) {
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read markdown file: %w", err)
	}
	content := string(raw)

	var meta frontMatter
	body := content
	if m := frontMatterRe.FindStringSubmatch(content); m != nil {
		// Malformed front matter is treated as content, not an error.
		_ = yaml.Unmarshal([]byte(m[1]), &meta)
		body = content[len(m[0]):]
	}

	base := filepath.Base(source)
	title := meta.Title
	if title == "" {
		if h1 := firstH1Re.FindStringSubmatch(body); h1 != nil {
			title = strings.TrimSpace(h1[1])
		}
	}
	if title == "" {
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &domain.Note{
		ID:         domain.NoteID(domain.SourceMarkdown, source),
		SourceType: domain.SourceMarkdown,
		SourcePath: source,
		Title:      title,
		Content:    stripMarkup(body),
		Tags:       collectTags(meta.Tags, body),
		Metadata: map[string]string{
			"filename": base,
		},
	}, nil
}

func (p *Parser) ExtractText(note *domain.Note) string {
	return note.Content
}

func stripMarkup(body string) string {
	text := codeFenceRe.ReplaceAllString(body, "")
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

func collectTags(fromMeta []string, body string) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, tag := range fromMeta {
		add(tag)
	}
	for _, m := range hashtagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return tags
}
