package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mzolotarev/notegraph/internal/core/domain"
	"github.com/mzolotarev/notegraph/internal/core/ports"
)

const maxBodyBytes = 10 << 20

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Fetcher processes http(s) sources: it downloads the page, extracts title,
// body text and metadata, and snapshots the raw HTML to object storage.
type Fetcher struct {
	httpClient *http.Client
	storage    ports.ObjectStorage
}

func NewFetcher(timeout time.Duration, storage ports.ObjectStorage) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		storage:    storage,
	}
}

func (f *Fetcher) CanHandle(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (f *Fetcher) Process(ctx context.Context, source string) (*domain.Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NotegraphBot/1.0)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch page status: %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	note := &domain.Note{
		ID:         domain.NoteID(domain.SourceWeb, source),
		SourceType: domain.SourceWeb,
		SourcePath: source,
		Title:      extractTitle(doc),
		Content:    extractContent(doc),
		Metadata:   extractMetadata(doc, source),
	}

	if f.storage != nil {
		if err := f.storage.Save(ctx, note.ID+".html", bytes.NewReader(raw)); err != nil {
			slog.Warn("snapshot_save_failed", "note_id", note.ID, "error", err)
		}
	}
	return note, nil
}

func (f *Fetcher) ExtractText(note *domain.Note) string {
	return note.Content
}

func extractTitle(doc *html.Node) string {
	for _, tag := range []string{"h1", "title"} {
		if node := findElement(doc, tag); node != nil {
			if title := strings.TrimSpace(nodeText(node)); title != "" {
				return title
			}
		}
	}
	return ""
}

func extractContent(doc *html.Node) string {
	root := findElement(doc, "article")
	if root == nil {
		root = findElement(doc, "main")
	}
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}

	var b strings.Builder
	collectText(root, &b)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		} else {
			out = append(out, "")
		}
	}
	text := strings.TrimSpace(strings.Join(out, "\n"))
	return blankRuns.ReplaceAllString(text, "\n\n")
}

func extractMetadata(doc *html.Node, source string) map[string]string {
	metadata := map[string]string{
		"url": source,
	}
	if parsed, err := url.Parse(source); err == nil {
		metadata["domain"] = parsed.Host
	}

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "meta" {
			return
		}
		var name, property, content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "name":
				name = attr.Val
			case "property":
				property = attr.Val
			case "content":
				content = attr.Val
			}
		}
		if content == "" {
			return
		}
		switch {
		case name == "description" || property == "og:description":
			metadata["description"] = content
		case name == "author" || property == "og:author":
			metadata["author"] = content
		case property == "og:title":
			metadata["og_title"] = content
		}
	})
	return metadata
}

func skippedElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "nav", "header", "footer", "aside":
		return true
	}
	return false
}

func blockElement(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "section", "article":
		return true
	}
	return false
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skippedElement(n.Data) {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && blockElement(n.Data) {
		b.WriteString("\n")
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
	if n.Type == html.ElementNode && blockElement(n.Data) {
		b.WriteString("\n")
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return b.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}
