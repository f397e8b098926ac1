package pdfclean

import (
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// minContentStreamLen is the serialized content-stream length below
// which a page is considered to carry no meaningful drawing operators.
const minContentStreamLen = 20

// pageIsBlank reports whether a page carries no meaningful content.
// A page is blank only when all three hold: no extracted visible text
// after stripping whitespace and zero-width characters, a content
// stream that is absent or shorter than minContentStreamLen, and no
// image XObject in the page's resource dictionary.
func pageIsBlank(page pdf.Page) bool {
	if visibleText(page) != "" {
		return false
	}
	if contentStreamLen(page.V.Key("Contents")) >= minContentStreamLen {
		return false
	}
	return !hasImageResource(page.V.Key("Resources"))
}

// visibleText extracts the page's plain text with whitespace and
// zero-width characters stripped. Extraction failures count as no text.
func visibleText(page pdf.Page) (text string) {
	// The underlying parser panics on some malformed content streams;
	// treat that the same as an extraction error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	raw, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || isZeroWidth(r) {
			return -1
		}
		return r
	}, raw)
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return false
}

// contentStreamLen returns the total byte length of the page's content
// stream(s), following the array form when present. Unreadable streams
// count as length zero.
func contentStreamLen(contents pdf.Value) (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()

	switch contents.Kind() {
	case pdf.Stream:
		return streamLen(contents)
	case pdf.Array:
		total := 0
		for i := 0; i < contents.Len(); i++ {
			total += streamLen(contents.Index(i))
		}
		return total
	}
	return 0
}

func streamLen(v pdf.Value) int {
	if v.Kind() != pdf.Stream {
		return 0
	}
	data, _ := io.ReadAll(v.Reader())
	return len(data)
}

// hasImageResource walks the resource dictionary's XObject entries
// looking for an embedded image reference.
func hasImageResource(resources pdf.Value) (found bool) {
	defer func() {
		if r := recover(); r != nil {
			found = false
		}
	}()

	if resources.Kind() != pdf.Dict {
		return false
	}
	xobjects := resources.Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return false
	}
	for _, name := range xobjects.Keys() {
		if xobjects.Key(name).Key("Subtype").Name() == "Image" {
			return true
		}
	}
	return false
}
