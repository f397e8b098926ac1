package pdfclean

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// RemoveBlankFirstPage writes a PDF at destPath that omits the first
// page of the PDF at srcPath if and only if that page is judged blank;
// otherwise the destination is a byte-for-byte copy of the source.
// A single-page document is always copied unchanged, even when its one
// page is blank. Returns whether a page was removed.
func RemoveBlankFirstPage(srcPath, destPath string) (bool, error) {
	f, reader, err := pdf.Open(srcPath)
	if err != nil {
		return false, &Error{
			Message: fmt.Sprintf("failed to open PDF: %s", srcPath),
			Cause:   err,
		}
	}
	defer func() { _ = f.Close() }()

	numPages := reader.NumPage()
	if numPages == 0 {
		return false, &EmptyDocumentError{Path: srcPath}
	}

	blank := pageIsBlank(reader.Page(1))
	if !blank {
		return false, copyFile(srcPath, destPath)
	}
	if numPages == 1 {
		log.Printf("pdfclean: single blank page in %s, keeping original", srcPath)
		return false, copyFile(srcPath, destPath)
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.RemovePagesFile(srcPath, destPath, []string{"1"}, cfg); err != nil {
		return false, &Error{
			Message: fmt.Sprintf("failed to remove blank first page from %s", srcPath),
			Cause:   err,
		}
	}
	return true, nil
}

// PageCount returns the number of pages in a PDF.
func PageCount(pdfPath string) (int, error) {
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, &Error{
			Message: fmt.Sprintf("failed to count pages of %s", pdfPath),
			Cause:   err,
		}
	}
	return count, nil
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to open %s", srcPath), Cause: err}
	}
	defer func() { _ = src.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to create %s", destPath), Cause: err}
	}
	defer func() { _ = dest.Close() }()

	if _, err := io.Copy(dest, src); err != nil {
		return &Error{Message: fmt.Sprintf("failed to copy %s to %s", srcPath, destPath), Cause: err}
	}
	return nil
}
