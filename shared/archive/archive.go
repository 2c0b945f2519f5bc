package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"

	"video2doc/internal/models"
)

// DefaultDocumentName is where the Markdown text lands inside the archive
// when the caller does not specify a path.
const DefaultDocumentName = "document.md"

// Write packages a generated document as a zip: the Markdown at docName and
// each image under images/<filename>, with no transformation of either.
func Write(w io.Writer, docName string, doc *models.GeneratedDocument) error {
	if docName == "" {
		docName = DefaultDocumentName
	}

	zw := zip.NewWriter(w)

	f, err := zw.Create(docName)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", docName, err)
	}
	if _, err := f.Write([]byte(doc.Markdown)); err != nil {
		return fmt.Errorf("failed to write document text: %w", err)
	}

	for _, img := range doc.Images {
		f, err := zw.Create(path.Join("images", img.Filename))
		if err != nil {
			return fmt.Errorf("failed to add image %s to archive: %w", img.Filename, err)
		}
		if _, err := f.Write(img.Data); err != nil {
			return fmt.Errorf("failed to write image %s: %w", img.Filename, err)
		}
	}

	return zw.Close()
}

// WriteFile writes the archive to a file on disk.
func WriteFile(zipPath, docName string, doc *models.GeneratedDocument) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	if err := Write(f, docName, doc); err != nil {
		return err
	}
	return f.Sync()
}
