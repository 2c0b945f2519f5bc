package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"video2doc/internal/models"
)

func TestWriteLayout(t *testing.T) {
	doc := &models.GeneratedDocument{
		Markdown: "# Notes\n\n![Screenshot 1](./images/a_00000100.jpg)\n",
		Images: []models.ExtractedImage{
			{Filename: "a_00000100.jpg", Data: []byte{0xff, 0xd8, 0xff}},
			{Filename: "a_00000200.jpg", Data: []byte{0xff, 0xd8, 0xfe}},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, "", doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to reopen archive: %v", err)
	}

	entries := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}

	if string(entries["document.md"]) != doc.Markdown {
		t.Errorf("document.md = %q, want %q", entries["document.md"], doc.Markdown)
	}
	if !bytes.Equal(entries["images/a_00000100.jpg"], doc.Images[0].Data) {
		t.Errorf("first image bytes altered")
	}
	if !bytes.Equal(entries["images/a_00000200.jpg"], doc.Images[1].Data) {
		t.Errorf("second image bytes altered")
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestWriteCustomDocumentName(t *testing.T) {
	doc := &models.GeneratedDocument{Markdown: "hello"}

	var buf bytes.Buffer
	if err := Write(&buf, "notes/summary.md", doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to reopen archive: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "notes/summary.md" {
		t.Errorf("unexpected archive layout: %+v", zr.File)
	}
}
