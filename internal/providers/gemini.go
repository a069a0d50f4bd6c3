package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// GeminiClient implements engine.Gateway for Gemini, whose protocol only
// knows the "user" and "model" roles. The system message and any greeting
// ahead of the first user turn are folded into the request's system
// instruction so the persona always reaches the model.
type GeminiClient struct {
	client *genai.Client
	opts   engine.ChatOptions
}

// NewGeminiClient creates a Gemini client. baseURL overrides the API
// endpoint (used by tests and proxies).
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, opts engine.ChatOptions) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, opts: opts.WithDefaults()}, nil
}

// GenerateReply implements engine.Gateway.
func (c *GeminiClient) GenerateReply(ctx context.Context, history []engine.ChatMessage) (string, error) {
	system, contents := toGeminiContents(history)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.opts.MaxOutputTokens),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, contents, config)
	if err != nil {
		return "", wrapGeminiError(err)
	}

	return firstCandidateText(resp)
}

// ListModels implements ModelLister.
func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, wrapGeminiError(err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

// toGeminiContents splits out the instruction text and maps the remaining
// turns onto user/model, merging consecutive turns of the same role.
func toGeminiContents(history []engine.ChatMessage) (string, []*genai.Content) {
	system, turns := splitSystem(history)

	var contents []*genai.Content
	for _, m := range turns {
		var role genai.Role = genai.RoleUser
		if m.Role == engine.RoleAssistant {
			role = genai.RoleModel
		}

		if n := len(contents); n > 0 && contents[n-1].Role == string(role) {
			contents[n-1].Parts = append(contents[n-1].Parts, genai.NewPartFromText(m.Content))
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	return strings.Join(system, "\n\n"), contents
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", engine.NewProviderError(ProviderGemini.String(), 200, "no candidates", engine.ErrEmptyReply)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", engine.NewProviderError(ProviderGemini.String(), 200, "empty candidate", engine.ErrEmptyReply)
	}
	return b.String(), nil
}

func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return engine.NewProviderError(ProviderGemini.String(), apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return engine.NewProviderError(ProviderGemini.String(), apiErrPtr.Code, apiErrPtr.Message, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	status, body := extractErrorMetadata(err)
	return engine.NewProviderError(ProviderGemini.String(), status, body, fmt.Errorf("gemini request: %w", err))
}
