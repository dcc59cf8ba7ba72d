package spreadsheet

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

// Parser flattens workbook sheets into plain text, one line per row with
// cells joined by " | ". Sheet names become section headers so chunking
// keeps rows of one sheet together.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) CanHandle(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

func (p *Parser) Process(_ context.Context, source string) (*domain.Note, error) {
	wb, err := excelize.OpenFile(source)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	var sections []string
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		sections = append(sections, sheet+"\n"+strings.Join(lines, "\n"))
	}

	base := filepath.Base(source)
	return &domain.Note{
		ID:         domain.NoteID(domain.SourceSpreadsheet, source),
		SourceType: domain.SourceSpreadsheet,
		SourcePath: source,
		Title:      strings.TrimSuffix(base, filepath.Ext(base)),
		Content:    strings.Join(sections, "\n\n"),
		Metadata: map[string]string{
			"filename":    base,
			"sheet_count": strconv.Itoa(len(sheets)),
			"sheets":      strings.Join(sheets, ", "),
		},
	}, nil
}

func (p *Parser) ExtractText(note *domain.Note) string {
	return note.Content
}
