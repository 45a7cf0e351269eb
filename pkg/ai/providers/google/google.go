package aigoogle

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/supportdesk/pkg/ai/llm"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// GoogleProvider implements llm.Provider on the Gemini API
type GoogleProvider struct {
	client *genai.Client
}

func NewGoogleProvider(ctx context.Context, apiKey string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleProvider{client: client}, nil
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Message, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	contents, config := buildRequest(messages, opts)

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return llm.Message{}, fmt.Errorf("google API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.Message{}, llm.NewEmptyResponseError(p.Name())
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return llm.NewAssistantMessage(sb.String()), nil
}

func buildRequest(messages []llm.Message, opts llm.Options) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, conversation := llm.SplitSystem(messages)

	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	return contents, config
}
