package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/classlens/insights-engine/pkg/config"
)

// ClientFactory creates LLM clients from server configuration.
type ClientFactory struct {
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(cfg *config.AIConfig, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLabelClient returns the client used for label synthesis, selected
// by the configured provider.
func (f *ClientFactory) CreateLabelClient() (LLMClient, error) {
	switch f.cfg.Provider {
	case "anthropic":
		client, err := NewAnthropicClient(&AnthropicConfig{
			Model:   f.cfg.LLMModel,
			APIKey:  f.cfg.LLMAPIKey,
			BaseURL: f.cfg.LLMBaseURL,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	case "openai":
		client, err := NewClient(&Config{
			Endpoint: f.cfg.LLMBaseURL,
			Model:    f.cfg.LLMModel,
			APIKey:   f.cfg.LLMAPIKey,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", f.cfg.Provider)
	}
}

// CreateEmbeddingClient returns the client used by the query-logging path
// to embed queries. Always OpenAI-compatible regardless of the label
// provider, since Anthropic exposes no embedding endpoint.
func (f *ClientFactory) CreateEmbeddingClient() (LLMClient, error) {
	apiKey := f.cfg.EmbeddingAPIKey
	if apiKey == "" {
		apiKey = f.cfg.LLMAPIKey
	}

	client, err := NewClient(&Config{
		Endpoint:       f.cfg.EmbeddingBaseURL,
		EmbeddingModel: f.cfg.EmbeddingModel,
		APIKey:         apiKey,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return client, nil
}
