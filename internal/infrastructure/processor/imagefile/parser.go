package imagefile

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

// Parser registers image notes by their pixel metadata. There is no OCR
// stage, so the indexable text is the filename-derived title.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) CanHandle(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func (p *Parser) Process(_ context.Context, source string) (*domain.Note, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open image file: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", source, err)
	}

	base := filepath.Base(source)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	return &domain.Note{
		ID:         domain.NoteID(domain.SourceImage, source),
		SourceType: domain.SourceImage,
		SourcePath: source,
		Title:      title,
		Content:    fmt.Sprintf("Image: %s (%s, %dx%d)", title, format, cfg.Width, cfg.Height),
		Metadata: map[string]string{
			"filename": base,
			"format":   format,
			"width":    strconv.Itoa(cfg.Width),
			"height":   strconv.Itoa(cfg.Height),
		},
	}, nil
}

func (p *Parser) ExtractText(note *domain.Note) string {
	return note.Content
}
