package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaProvider implements the Provider interface for local Ollama models
type OllamaProvider struct {
	client *api.Client
	config Config
}

// NewOllamaProvider creates a new Ollama provider. Without a base URL the
// host comes from OLLAMA_HOST.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	host := envconfig.Host()
	if config.BaseURL != "" {
		parsed, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse ollama base URL: %w", err)
		}
		host = parsed
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // Local models load slowly
	}

	return &OllamaProvider{
		client: api.NewClient(host, &http.Client{Timeout: timeout}),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the Ollama server answers
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.client.Heartbeat(ctx) == nil
}

// Summarize generates a summary with a local model
func (p *OllamaProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedCitations)
	}
	modelName := p.config.modelOr(req.Model, "")
	if modelName == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	genReq := api.GenerateRequest{
		Model:  modelName,
		Prompt: prompt,
		System: systemPrompt,
		Options: map[string]interface{}{
			"temperature": 0.3,
			"num_predict": p.config.maxTokensOr(req.MaxTokens),
		},
	}

	var (
		builder    strings.Builder
		tokensUsed int
	)
	err := p.client.Generate(ctx, &genReq, func(resp api.GenerateResponse) error {
		builder.WriteString(resp.Response)
		if resp.Done {
			tokensUsed = resp.PromptEvalCount + resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	summary := strings.TrimSpace(builder.String())
	if tokensUsed == 0 {
		// Rough estimate: 1 token per 4 characters
		tokensUsed = (len(prompt) + len(summary)) / 4
	}

	cited, err := VerifyCitations(summary, req.AllowedCitations, p.config.StrictCitation)
	if err != nil {
		return nil, err
	}

	return &SummarizeResponse{
		Summary:    summary,
		Citations:  cited,
		Model:      modelName,
		TokensUsed: tokensUsed,
	}, nil
}
