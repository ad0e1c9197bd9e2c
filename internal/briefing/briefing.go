// Package briefing produces debate prep text for a headline.
package briefing

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/models"
)

const (
	DefaultModel = "gpt-4o-mini"
	Unavailable  = "Briefing unavailable."

	systemPrompt = "You are a debate and extemporaneous speaking coach for high school students."
	userPrompt   = `Headline: %s
Source: %s
Subject: %s

Write a short briefing for a student preparing an extemp speech on this story:
1. Two sentences of background.
2. The strongest argument on each side.
3. One question the student should be ready to answer.`
)

type Config struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// New returns nil when no API key is configured; a nil *Client is valid
// and always answers with the placeholder.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *Client) Enabled() bool {
	return c != nil
}

func Prompt(h models.Headline) string {
	return fmt.Sprintf(userPrompt, h.Title, h.Source, h.Subject)
}

// Brief never fails: API errors are logged and replaced by Unavailable.
func (c *Client) Brief(ctx context.Context, h models.Headline) string {
	if c == nil {
		return Unavailable
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(h)},
		},
	}
	if c.maxTokens > 0 {
		req.MaxCompletionTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.Error.Printf("Briefing for %q failed: %v", h.Title, err)
		return Unavailable
	}
	if len(resp.Choices) == 0 {
		logger.Error.Printf("Briefing for %q returned no choices", h.Title)
		return Unavailable
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Unavailable
	}
	return text
}
