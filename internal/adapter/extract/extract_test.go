package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXExtract(t *testing.T) {
	data := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>para</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	text, err := DOCX{}.Extract(data)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello world\nSecond\tpara\n" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestDOCXExtractNotAZip(t *testing.T) {
	if _, err := (DOCX{}).Extract([]byte("plain text")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestXLSXExtract(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "role"}); err != nil {
		t.Fatalf("set header: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &[]interface{}{"Ada", "engineer"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	text, err := XLSX{}.Extract(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "name\trole") || !strings.Contains(text, "Ada\tengineer") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestPDFExtractRejectsGarbage(t *testing.T) {
	if _, err := (PDF{}).Extract([]byte("not a pdf at all")); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	r := NewRegistry()

	text, err := r.Extract("Notes.TXT", []byte("some notes"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "some notes" {
		t.Errorf("unexpected text %q", text)
	}

	if !r.Supports("report.pdf") || !r.Supports("sheet.xlsx") || r.Supports("image.png") {
		t.Error("unexpected Supports results")
	}

	if _, err := r.Extract("image.png", []byte{0x89}); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPlainTextDropsInvalidUTF8(t *testing.T) {
	text, _ := PlainText{}.Extract([]byte("ok\xffok"))
	if text != "okok" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"My cool file.txt", "My_cool_file.txt"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.docx`, "notes.docx"},
		{"résumé.pdf", "resume.pdf"},
		{"Ｒeport №1.txt", "Report_No1.txt"},
		{"日本語.txt", "txt"},
		{"..", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SecureFilename(tt.in); got != tt.want {
			t.Errorf("SecureFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
