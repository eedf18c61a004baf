package rulebook

import (
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

func createTempFile(t *testing.T, content, ext string) string {
	tmpFile, err := os.CreateTemp("", "lcr-test-*"+ext)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func createTempPDF(t *testing.T, texts ...string) string {
	tmpFile, err := os.CreateTemp("", "lcr-test-*.pdf")
	if err != nil {
		t.Fatalf("Failed to create temp PDF file: %v", err)
	}
	defer tmpFile.Close()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for _, text := range texts {
		pdf.AddPage()
		pdf.MultiCell(0, 10, text, "", "", false)
	}
	if err := pdf.Output(tmpFile); err != nil {
		t.Fatalf("Failed to write PDF: %v", err)
	}
	return tmpFile.Name()
}

func TestPlainTextParser(t *testing.T) {
	content := "Article 1\nFirst page body.\fArticle 2\nSecond page body."
	file := createTempFile(t, content, ".txt")
	defer os.Remove(file)

	parser := NewPlainTextParser()
	pages, err := parser.Parse(file)
	if err != nil {
		t.Fatalf("PlainTextParser.Parse failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("Unexpected page numbers: %d, %d", pages[0].Number, pages[1].Number)
	}
	if !strings.Contains(pages[0].Text, "First page body") {
		t.Errorf("Expected content not found in first page: %s", pages[0].Text)
	}
}

func TestPlainTextParserSinglePage(t *testing.T) {
	file := createTempFile(t, "Article 1\nOnly page.", ".txt")
	defer os.Remove(file)

	parser := NewPlainTextParser()
	pages, err := parser.Parse(file)
	if err != nil {
		t.Fatalf("PlainTextParser.Parse failed: %v", err)
	}
	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("Expected a single page numbered 1, got %+v", pages)
	}
}

func TestMarkdownParser(t *testing.T) {
	content := "# Chapter 1\n\nArticle 2\n\nThis article defines **HQLA**.\n\n- Level 1 assets\n- Level 2 assets"
	file := createTempFile(t, content, ".md")
	defer os.Remove(file)

	parser := NewMarkdownParser()
	pages, err := parser.Parse(file)
	if err != nil {
		t.Fatalf("MarkdownParser.Parse failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("Expected a single page, got %d", len(pages))
	}
	if !strings.Contains(pages[0].Text, "HQLA") {
		t.Errorf("Expected content not found in parsed text: %s", pages[0].Text)
	}
	if !strings.Contains(pages[0].Text, "Level 1 assets") {
		t.Errorf("Expected list item not found in parsed text: %s", pages[0].Text)
	}
	if strings.Contains(pages[0].Text, "<") {
		t.Errorf("HTML tags leaked into parsed text: %s", pages[0].Text)
	}
}

func TestPDFParser(t *testing.T) {
	file := createTempPDF(t, "This is a PDF test.\nSecond line.")
	defer os.Remove(file)

	parser := NewPDFParser()
	pages, err := parser.Parse(file)
	if err != nil {
		t.Fatalf("PDFParser.Parse failed: %v", err)
	}
	if len(pages) == 0 {
		t.Fatal("Expected at least one page")
	}
	if pages[0].Number != 1 {
		t.Errorf("Expected first page numbered 1, got %d", pages[0].Number)
	}
	if !strings.Contains(pages[0].Text, "PDF test") {
		t.Errorf("Expected content not found in parsed PDF text: %s", pages[0].Text)
	}
}

func TestPDFParserMultiPage(t *testing.T) {
	file := createTempPDF(t, "Page one content.", "Page two content.")
	defer os.Remove(file)

	parser := NewPDFParser()
	pages, err := parser.Parse(file)
	if err != nil {
		t.Fatalf("PDFParser.Parse failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	// 页码按升序返回
	if pages[0].Number >= pages[1].Number {
		t.Errorf("Pages not sorted by number: %d, %d", pages[0].Number, pages[1].Number)
	}
}

func TestParserFactory(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		wantErr bool
	}{
		{"pdf", ".pdf", false},
		{"markdown", ".md", false},
		{"plaintext", ".txt", false},
		{"unsupported", ".docx", true},
	}

	for _, tt := range tests {
		_, err := ParserFactory("rulebook" + tt.ext)
		if tt.wantErr && err == nil {
			t.Errorf("ParserFactory(%s): expected error, got nil", tt.ext)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("ParserFactory(%s): unexpected error: %v", tt.ext, err)
		}
	}
}
