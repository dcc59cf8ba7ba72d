package spreadsheet

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budget.xlsx")

	wb := excelize.NewFile()
	defer wb.Close()

	_ = wb.SetCellValue("Sheet1", "A1", "Item")
	_ = wb.SetCellValue("Sheet1", "B1", "Cost")
	_ = wb.SetCellValue("Sheet1", "A2", "Server")
	_ = wb.SetCellValue("Sheet1", "B2", 120)

	if _, err := wb.NewSheet("Empty"); err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestCanHandle(t *testing.T) {
	p := NewParser()
	if !p.CanHandle("report.xlsx") || !p.CanHandle("macro.XLSM") {
		t.Fatal("expected workbook extensions handled")
	}
	if p.CanHandle("report.csv") || p.CanHandle("report.xls") {
		t.Fatal("expected other extensions rejected")
	}
}

func TestProcessFlattensSheets(t *testing.T) {
	path := writeWorkbook(t)

	note, err := NewParser().Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if note.SourceType != domain.SourceSpreadsheet || note.Title != "budget" {
		t.Fatalf("unexpected note: %+v", note)
	}
	if !strings.Contains(note.Content, "Item | Cost") {
		t.Fatalf("expected header row flattened, got %q", note.Content)
	}
	if !strings.Contains(note.Content, "Server | 120") {
		t.Fatalf("expected data row flattened, got %q", note.Content)
	}
	if strings.Contains(note.Content, "Empty") {
		t.Fatalf("sheets without content must be skipped, got %q", note.Content)
	}
	if note.Metadata["sheet_count"] != "2" {
		t.Fatalf("unexpected metadata: %v", note.Metadata)
	}
}

func TestProcessMissingFile(t *testing.T) {
	if _, err := NewParser().Process(context.Background(), "/does/not/exist.xlsx"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
