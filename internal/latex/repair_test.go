package latex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalanceBraces_Balanced(t *testing.T) {
	src := `\section{Skills}{Go, Python}`
	fixed, added, removed := BalanceBraces(src)
	assert.Equal(t, src, fixed)
	assert.Zero(t, added)
	assert.Zero(t, removed)
}

func TestBalanceBraces_AppendsMissingClosers(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		missing int
	}{
		{"one missing", `\textbf{Engineer`, 1},
		{"three missing", `\textbf{\emph{Name{`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixed, added, removed := BalanceBraces(tt.src)
			assert.Equal(t, tt.missing, added)
			assert.Zero(t, removed)
			assert.Equal(t, strings.Count(fixed, "{"), strings.Count(fixed, "}"),
				"repaired source must have balanced braces")
			assert.Equal(t, tt.src+strings.Repeat("}", tt.missing), fixed)
		})
	}
}

func TestBalanceBraces_StripsSurplusTrailingClosers(t *testing.T) {
	src := `\section{Experience}` + "}}\n"
	fixed, added, removed := BalanceBraces(src)
	assert.Zero(t, added)
	assert.Equal(t, 2, removed)
	assert.Equal(t, strings.Count(fixed, "{"), strings.Count(fixed, "}"))
}

func TestBalanceBraces_SurplusWithTrailingWhitespace(t *testing.T) {
	src := "\\item{done}}  \n\t"
	fixed, _, removed := BalanceBraces(src)
	assert.Equal(t, 1, removed)
	assert.Equal(t, strings.Count(fixed, "{"), strings.Count(fixed, "}"))
}

func TestBalanceBraces_SurplusNotAtEnd(t *testing.T) {
	// Surplus closers buried mid-document: stripping works from the end
	// only, so it removes trailing closers until the tail is no longer a
	// closing brace, then stops even if the count is still off.
	src := `}}\section{Summary}`
	fixed, added, removed := BalanceBraces(src)
	assert.Zero(t, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, `}}\section{Summary`, fixed)
}

func TestEnsureDocumentEnd(t *testing.T) {
	fixed, addedEnd := EnsureDocumentEnd(`\begin{document}Hello`)
	assert.True(t, addedEnd)
	assert.True(t, strings.HasSuffix(fixed, DocumentEnd))

	already := `\begin{document}Hello\end{document}`
	same, addedEnd := EnsureDocumentEnd(already)
	assert.False(t, addedEnd)
	assert.Equal(t, already, same)
}

func TestRepairSource_CombinedFixes(t *testing.T) {
	src := `\begin{document}\textbf{Name`
	fixed, fixes := RepairSource(src)

	assert.Len(t, fixes, 2)
	assert.Equal(t, strings.Count(fixed, "{"), strings.Count(fixed, "}"))
	assert.Contains(t, fixed, DocumentEnd)
}

func TestRepairSource_NoFixesNeeded(t *testing.T) {
	src := `\begin{document}ok\end{document}`
	fixed, fixes := RepairSource(src)
	assert.Empty(t, fixes)
	assert.Equal(t, src, fixed)
}
