package tailoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/marcus/resume-tailor/internal/extraction"
	"github.com/marcus/resume-tailor/internal/llm"
	"github.com/marcus/resume-tailor/internal/prompts"
)

//go:embed sections_schema.json
var sectionsSchema string

// RewriteSections asks the model to rewrite every resume section for
// the job description, returning the same keys. The model's JSON is
// validated against the sections schema before use.
func RewriteSections(ctx context.Context, client llm.Client, sections extraction.Sections, jobDesc string) (extraction.Sections, error) {
	var zero extraction.Sections

	input, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return zero, &RewriteError{Message: "failed to encode sections", Cause: err}
	}

	prompt := prompts.Format(prompts.MustGet(promptFile, "sections_rewrite"), map[string]string{
		"Sections":       string(input),
		"JobDescription": jobDesc,
	})

	raw, err := client.GenerateJSON(ctx, prompt)
	if err != nil {
		return zero, &RewriteError{Message: "section rewrite call failed", Cause: err}
	}

	if err := validateSections(raw); err != nil {
		return zero, err
	}

	var rewritten extraction.Sections
	if err := json.Unmarshal([]byte(raw), &rewritten); err != nil {
		return zero, &RewriteError{Message: "failed to decode rewritten sections", Cause: err}
	}
	return rewritten, nil
}

// validateSections checks the model output against the embedded schema.
func validateSections(raw string) error {
	schemaLoader := gojsonschema.NewStringLoader(sectionsSchema)
	docLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return &RewriteError{Message: "schema validation could not run", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &SchemaError{Details: details}
}
