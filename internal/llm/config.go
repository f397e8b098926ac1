// Package llm provides the text-generation client used by the
// tailoring pipeline.
package llm

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

const (
	// DefaultModel is the generation model used for both rewrite calls.
	DefaultModel = "gemini-2.5-flash"

	// DefaultTemperature keeps rewrites close to the source material.
	DefaultTemperature float32 = 0.3

	// DefaultMaxOutputTokens bounds a single rewrite response.
	DefaultMaxOutputTokens int32 = 4000
)

// Config holds the model configuration for the application
type Config struct {
	Provider        Provider
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderGemini,
		Model:           DefaultModel,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// WithModel returns a copy of the config using a specific model
func (c *Config) WithModel(model string) *Config {
	out := *c
	out.Model = model
	return &out
}
