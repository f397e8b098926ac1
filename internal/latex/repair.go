package latex

import (
	"fmt"
	"strings"
)

// DocumentEnd is the terminator marker every compilable document needs.
const DocumentEnd = `\end{document}`

// BalanceBraces repairs a mismatched brace count by counting literal
// '{' and '}' characters. When openers outnumber closers it appends
// exactly the missing closing braces; when closers outnumber openers it
// strips exactly the surplus count of trailing closing braces (skipping
// trailing whitespace). Returns the repaired source and the number of
// braces added and removed.
func BalanceBraces(src string) (fixed string, added, removed int) {
	open := strings.Count(src, "{")
	closed := strings.Count(src, "}")

	switch {
	case open > closed:
		added = open - closed
		return src + strings.Repeat("}", added), added, 0

	case closed > open:
		surplus := closed - open
		for removed < surplus {
			trimmed := strings.TrimRight(src, " \t\r\n")
			if !strings.HasSuffix(trimmed, "}") {
				break
			}
			src = trimmed[:len(trimmed)-1]
			removed++
		}
		return src, 0, removed
	}

	return src, 0, 0
}

// EnsureDocumentEnd appends \end{document} when the terminator is
// missing. Returns the (possibly unchanged) source and whether the
// marker was added.
func EnsureDocumentEnd(src string) (string, bool) {
	if strings.Contains(src, DocumentEnd) {
		return src, false
	}
	return src + "\n" + DocumentEnd, true
}

// RepairSource applies the mechanical repairs in order: brace balancing
// first, then the document terminator. The returned descriptions name
// each fix applied, for logging.
func RepairSource(src string) (string, []string) {
	var fixes []string

	fixed, added, removed := BalanceBraces(src)
	if added > 0 {
		fixes = append(fixes, pluralFix("added %d closing brace", added))
	}
	if removed > 0 {
		fixes = append(fixes, pluralFix("removed %d extra closing brace", removed))
	}

	fixed, addedEnd := EnsureDocumentEnd(fixed)
	if addedEnd {
		fixes = append(fixes, "added missing "+DocumentEnd)
	}

	return fixed, fixes
}

func pluralFix(format string, n int) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}
