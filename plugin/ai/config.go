package ai

import (
	"errors"
	"fmt"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
)

// Provider defaults. Every provider speaks the OpenAI chat completions API.
var providerDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"siliconflow": {BaseURL: "https://api.siliconflow.cn/v1", Model: "deepseek-ai/DeepSeek-V3"},
	"deepseek":    {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat"},
	"openai":      {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
	"ollama":      {BaseURL: "http://localhost:11434/v1", Model: "qwen2.5"},
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string  // siliconflow, deepseek, openai, ollama
	Model       string  // deepseek-ai/DeepSeek-V3
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 3000
	Temperature float32 // default: 0.7
	TopP        float32 // default: 1.0
}

// NewLLMConfigFromProfile creates LLM config from profile, filling base URL
// and model from the provider when the profile leaves them empty.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := &LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		MaxTokens:   p.AIMaxTokens,
		Temperature: float32(p.AITemperature),
		TopP:        float32(p.AITopP),
	}
	cfg.applyDefaults()
	return cfg
}

func (c *LLMConfig) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "siliconflow"
	}
	if d, ok := providerDefaults[c.Provider]; ok {
		if c.BaseURL == "" {
			c.BaseURL = d.BaseURL
		}
		if c.Model == "" {
			c.Model = d.Model
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 3000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.TopP == 0 {
		c.TopP = 1.0
	}
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if _, ok := providerDefaults[c.Provider]; !ok {
		return fmt.Errorf("unsupported LLM provider: %s", c.Provider)
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be within [0, 1], got %v", c.TopP)
	}
	return nil
}
