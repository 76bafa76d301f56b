package core

// GenerationConfig holds sampling parameters for chat completion calls.
type GenerationConfig struct {
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	MaxTokens        int     `json:"max_tokens"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// DefaultGenerationConfig returns the low-temperature configuration used for
// grounded question answering. The values are deliberately conservative so
// answers stay reproducible across runs.
func DefaultGenerationConfig(model string) GenerationConfig {
	return GenerationConfig{
		Model:            model,
		Temperature:      0.1,
		TopP:             1.0,
		MaxTokens:        300,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.1,
	}
}

func (g GenerationConfig) WithMaxTokens(t int) GenerationConfig {
	g.MaxTokens = t
	return g
}

func (g GenerationConfig) WithTemperature(t float64) GenerationConfig {
	g.Temperature = t
	return g
}
