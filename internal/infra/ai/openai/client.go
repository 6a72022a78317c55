package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"intake-triage/internal/domain/classify"
	"intake-triage/internal/infra/ai/prompt"
)

const maxTokens = 512

// Client implements classify.Classifier against the OpenAI chat API.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) model() string {
	if c.Model == "" {
		return "gpt-4o-mini"
	}
	return c.Model
}

// Classify runs the classification query and parses the verdict. Any
// transport or parse failure is reported as classify.ErrUnavailable so the
// orchestrator can substitute the default verdict.
func (c *Client) Classify(ctx context.Context, text string) (classify.Verdict, error) {
	raw, err := c.chat(ctx, prompt.GetSystemPrompt(), prompt.GetUserPrompt(text), true)
	if err != nil {
		return classify.Verdict{}, fmt.Errorf("%w: %v", classify.ErrUnavailable, err)
	}
	v, err := prompt.ParseVerdict(raw)
	if err != nil {
		return classify.Verdict{Diagnostic: raw}, fmt.Errorf("%w: %v", classify.ErrUnavailable, err)
	}
	return v, nil
}

// DetectTone runs the dedicated tone query with the closed vocabulary.
func (c *Client) DetectTone(ctx context.Context, text string) (classify.Tone, error) {
	raw, err := c.chat(ctx, "", prompt.GetTonePrompt(text), false)
	if err != nil {
		return classify.ToneNeutral, fmt.Errorf("%w: %v", classify.ErrUnavailable, err)
	}
	return prompt.ParseTone(raw), nil
}

func (c *Client) chat(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	model := c.model()
	req := openai.ChatCompletionRequest{Model: model}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if system != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: user,
	})

	// Reasoning models take MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
