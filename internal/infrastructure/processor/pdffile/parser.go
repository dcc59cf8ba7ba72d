package pdffile

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

// Parser processes local PDF files into notes.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) CanHandle(source string) bool {
	return strings.HasSuffix(strings.ToLower(source), ".pdf")
}

func (p *Parser) Process(_ context.Context, source string) (*domain.Note, error) {
	file, reader, err := pdf.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	raw, err := io.ReadAll(textReader)
	if err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	base := filepath.Base(source)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	return &domain.Note{
		ID:         domain.NoteID(domain.SourcePDF, source),
		SourceType: domain.SourcePDF,
		SourcePath: source,
		Title:      title,
		Content:    strings.TrimSpace(string(raw)),
		Metadata: map[string]string{
			"filename":   base,
			"page_count": strconv.Itoa(reader.NumPage()),
		},
	}, nil
}

func (p *Parser) ExtractText(note *domain.Note) string {
	return note.Content
}
