package tailoring

import (
	"context"
	"strings"

	"github.com/marcus/resume-tailor/internal/llm"
	"github.com/marcus/resume-tailor/internal/prompts"
)

const promptFile = "tailoring.json"

// TailorResume rewrites the full resume (header + body) to align with
// the job description. Returns a LaTeX body without preamble.
func TailorResume(ctx context.Context, client llm.Client, resumeText, jobDesc string) (string, error) {
	system := prompts.MustGet(promptFile, "tailor_system")
	user := prompts.Format(prompts.MustGet(promptFile, "tailor_user"), map[string]string{
		"Resume":         resumeText,
		"JobDescription": jobDesc,
	})

	draft, err := client.GenerateWithSystem(ctx, system, user)
	if err != nil {
		return "", &RewriteError{Message: "draft rewrite call failed", Cause: err}
	}

	draft = llm.CleanCodeBlock(draft)
	if strings.TrimSpace(draft) == "" {
		return "", &RewriteError{Message: "model returned an empty draft"}
	}
	return draft, nil
}

// InsertIntoTemplate asks the model to merge the tailored draft into
// the LaTeX template. Returns a complete document ready to compile.
func InsertIntoTemplate(ctx context.Context, client llm.Client, templateContent, draft string) (string, error) {
	system := prompts.MustGet(promptFile, "insert_system")
	user := prompts.Format(prompts.MustGet(promptFile, "insert_user"), map[string]string{
		"Template": templateContent,
		"Draft":    draft,
	})

	document, err := client.GenerateWithSystem(ctx, system, user)
	if err != nil {
		return "", &InsertError{Message: "template insertion call failed", Cause: err}
	}

	document = llm.CleanCodeBlock(document)
	if strings.TrimSpace(document) == "" {
		return "", &InsertError{Message: "model returned an empty document"}
	}
	return document, nil
}
