package extraction

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

// LoadFile loads text content from a txt, tex, pdf, doc, or docx file.
func LoadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".tex":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &ExtractError{
				Message: fmt.Sprintf("failed to read %s", path),
				Cause:   err,
			}
		}
		return strings.TrimSpace(string(data)), nil

	case ".pdf":
		return extractPDFText(path)

	case ".docx":
		f, err := os.Open(path)
		if err != nil {
			return "", &ExtractError{
				Message: fmt.Sprintf("failed to open %s", path),
				Cause:   err,
			}
		}
		defer func() { _ = f.Close() }()
		text, _, err := docconv.ConvertDocx(f)
		if err != nil {
			return "", &ExtractError{
				Message: fmt.Sprintf("failed to convert %s", path),
				Cause:   err,
			}
		}
		return strings.TrimSpace(text), nil

	case ".doc":
		f, err := os.Open(path)
		if err != nil {
			return "", &ExtractError{
				Message: fmt.Sprintf("failed to open %s", path),
				Cause:   err,
			}
		}
		defer func() { _ = f.Close() }()
		text, _, err := docconv.ConvertDoc(f)
		if err != nil {
			return "", &ExtractError{
				Message: fmt.Sprintf("failed to convert %s", path),
				Cause:   err,
			}
		}
		return strings.TrimSpace(text), nil

	default:
		return "", &UnsupportedTypeError{Type: ext}
	}
}

// FromUpload extracts text from uploaded file content. Binary formats
// are written under uploadsDir first, both as a working copy for the
// extractors and as the retained upload artifact.
func FromUpload(content []byte, filename, uploadsDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".txt" || ext == ".tex" {
		return strings.TrimSpace(string(content)), nil
	}

	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return "", &ExtractError{
			Message: fmt.Sprintf("failed to create uploads directory: %s", uploadsDir),
			Cause:   err,
		}
	}
	path := filepath.Join(uploadsDir, filepath.Base(filename))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", &ExtractError{
			Message: fmt.Sprintf("failed to save upload: %s", path),
			Cause:   err,
		}
	}
	return LoadFile(path)
}

// extractPDFText reads all plain text from a PDF.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExtractError{Message: fmt.Sprintf("PDF text extraction panicked for %s: %v", path, r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &ExtractError{
			Message: fmt.Sprintf("failed to open PDF: %s", path),
			Cause:   err,
		}
	}
	defer func() { _ = f.Close() }()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", &ExtractError{
			Message: fmt.Sprintf("failed to extract text from %s", path),
			Cause:   err,
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", &ExtractError{
			Message: fmt.Sprintf("failed to read extracted text from %s", path),
			Cause:   err,
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
