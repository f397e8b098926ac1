package pdfclean

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPage describes one page of a handcrafted fixture PDF.
type testPage struct {
	text      string // rendered as a text-showing content stream
	rawStream string // verbatim content stream, used when text is empty
	image     bool   // attach an image XObject to the page resources
}

// buildTestPDF assembles a minimal but well-formed PDF so the heuristic
// can be exercised without a LaTeX toolchain. Object numbering:
// 1 catalog, 2 page tree, 3 font, then page/content/image objects.
func buildTestPDF(pages []testPage) []byte {
	objs := make(map[int]string)
	next := 4
	var kids []string

	for _, pg := range pages {
		pageNum := next
		next++

		stream := pg.rawStream
		if pg.text != "" {
			stream = fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", pg.text)
		}

		var contents string
		if stream != "" {
			contNum := next
			next++
			objs[contNum] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
			contents = fmt.Sprintf(" /Contents %d 0 R", contNum)
		}

		resources := "/Font << /F1 3 0 R >>"
		if pg.image {
			imgNum := next
			next++
			objs[imgNum] = "<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 1 >>\nstream\nA\nendstream"
			resources += fmt.Sprintf(" /XObject << /Im0 %d 0 R >>", imgNum)
		}

		objs[pageNum] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << %s >>%s >>", resources, contents)
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
	}

	objs[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))
	objs[3] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	maxObj := next - 1
	offsets := make([]int, maxObj+1)
	for i := 1; i <= maxObj; i++ {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i, objs[i])
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxObj+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxObj; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", maxObj+1, xrefPos)
	return buf.Bytes()
}

func writeTestPDF(t *testing.T, pages []testPage) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buildTestPDF(pages), 0644))
	return path
}

func extractFirstPageText(t *testing.T, path string) string {
	t.Helper()
	f, reader, err := pdf.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	text, err := reader.Page(1).GetPlainText(nil)
	require.NoError(t, err)
	return text
}

func TestIsZeroWidth(t *testing.T) {
	for _, r := range []rune{'\u200b', '\u200c', '\u200d', '\u2060', '\ufeff'} {
		assert.True(t, isZeroWidth(r), "U+%04X", r)
	}
	assert.False(t, isZeroWidth('a'))
	assert.False(t, isZeroWidth(' '))
}

func TestRemoveBlankFirstPage_DropsBlankPage(t *testing.T) {
	src := writeTestPDF(t, []testPage{
		{}, // truly blank: no content stream, no images
		{text: "Curriculum Vitae"},
	})
	dest := filepath.Join(t.TempDir(), "out.pdf")

	removed, err := RemoveBlankFirstPage(src, dest)
	require.NoError(t, err)
	assert.True(t, removed)

	count, err := PageCount(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, extractFirstPageText(t, dest), "Curriculum Vitae")
}

func TestRemoveBlankFirstPage_KeepsTextPage(t *testing.T) {
	src := writeTestPDF(t, []testPage{
		{text: "Jane Doe"},
		{text: "Experience"},
	})
	dest := filepath.Join(t.TempDir(), "out.pdf")

	removed, err := RemoveBlankFirstPage(src, dest)
	require.NoError(t, err)
	assert.False(t, removed)

	srcBytes, err := os.ReadFile(src)
	require.NoError(t, err)
	destBytes, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, srcBytes, destBytes, "untouched documents must be byte-for-byte copies")
}

func TestRemoveBlankFirstPage_NeverProducesZeroPages(t *testing.T) {
	src := writeTestPDF(t, []testPage{{}})
	dest := filepath.Join(t.TempDir(), "out.pdf")

	removed, err := RemoveBlankFirstPage(src, dest)
	require.NoError(t, err)
	assert.False(t, removed, "the only page must never be discarded")

	srcBytes, err := os.ReadFile(src)
	require.NoError(t, err)
	destBytes, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, srcBytes, destBytes)
}

func TestRemoveBlankFirstPage_ImagePageIsNotBlank(t *testing.T) {
	src := writeTestPDF(t, []testPage{
		{image: true},
		{text: "Second"},
	})
	dest := filepath.Join(t.TempDir(), "out.pdf")

	removed, err := RemoveBlankFirstPage(src, dest)
	require.NoError(t, err)
	assert.False(t, removed, "a page with an embedded image is not blank")
}

func TestRemoveBlankFirstPage_LongContentStreamIsNotBlank(t *testing.T) {
	// No visible text, but drawing operators above the minimal-content
	// threshold keep the page.
	src := writeTestPDF(t, []testPage{
		{rawStream: "q 1 0 0 1 72 720 cm 0 0 100 100 re f Q"},
		{text: "Second"},
	})
	dest := filepath.Join(t.TempDir(), "out.pdf")

	removed, err := RemoveBlankFirstPage(src, dest)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveBlankFirstPage_TinyContentStreamIsBlank(t *testing.T) {
	src := writeTestPDF(t, []testPage{
		{rawStream: "q Q"},
		{text: "Second"},
	})
	dest := filepath.Join(t.TempDir(), "out.pdf")

	removed, err := RemoveBlankFirstPage(src, dest)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRemoveBlankFirstPage_Idempotent(t *testing.T) {
	src := writeTestPDF(t, []testPage{
		{},
		{text: "Only real page"},
	})
	dir := t.TempDir()
	cleaned := filepath.Join(dir, "cleaned.pdf")
	again := filepath.Join(dir, "again.pdf")

	removed, err := RemoveBlankFirstPage(src, cleaned)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = RemoveBlankFirstPage(cleaned, again)
	require.NoError(t, err)
	assert.False(t, removed, "second run must be a no-op")

	cleanedBytes, err := os.ReadFile(cleaned)
	require.NoError(t, err)
	againBytes, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, cleanedBytes, againBytes)
}

func TestRemoveBlankFirstPage_ZeroPagesIsFatal(t *testing.T) {
	src := writeTestPDF(t, nil)
	dest := filepath.Join(t.TempDir(), "out.pdf")

	_, err := RemoveBlankFirstPage(src, dest)

	var emptyErr *EmptyDocumentError
	require.ErrorAs(t, err, &emptyErr)
	assert.NoFileExists(t, dest, "fatal errors must not write an output file")
}

func TestRemoveBlankFirstPage_MissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.pdf")
	_, err := RemoveBlankFirstPage("/nonexistent/doc.pdf", dest)

	var cleanErr *Error
	assert.ErrorAs(t, err, &cleanErr)
}
