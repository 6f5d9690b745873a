package classifier

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrMissingAPIKey is returned by AnthropicModel when no credential is configured.
var ErrMissingAPIKey = errors.New("classifier API key not configured")

// ErrEmptyReply is returned when the model answers without any text.
var ErrEmptyReply = errors.New("model reply contained no text")

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AnthropicModel implements Model on the Anthropic Messages API.
type AnthropicModel struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	hasKey    bool
}

// NewAnthropicModel builds the model client. Retries are disabled in the SDK;
// Classifier owns the retry policy. Extra options are applied last, which lets
// tests point the client at a local server.
func NewAnthropicModel(apiKey, model string, maxTokens int, opts ...option.RequestOption) *AnthropicModel {
	if maxTokens <= 0 {
		maxTokens = 100
	}
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &AnthropicModel{
		client:    anthropic.NewClient(append(base, opts...)...),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
		hasKey:    apiKey != "",
	}
}

// Generate sends the image and prompt as one user message and returns the reply text.
func (m *AnthropicModel) Generate(ctx context.Context, req Request) (string, error) {
	if !m.hasKey {
		return "", ErrMissingAPIKey
	}
	if !supportedImageTypes[req.MIMEType] {
		return "", fmt.Errorf("unsupported image type %q", req.MIMEType)
	}

	message, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       m.model,
		MaxTokens:   m.maxTokens,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(req.MIMEType, base64.StdEncoding.EncodeToString(req.Image)),
				anthropic.NewTextBlock(req.Prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages.new: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyReply
	}
	return sb.String(), nil
}
