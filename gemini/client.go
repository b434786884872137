package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

func NewClient(ctx context.Context, apiKey string, modelName string, logger logrus.FieldLogger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	logger.WithField("model", modelName).Info("Using Gemini model")
	model := client.GenerativeModel(modelName)

	// Low temperature: the narrative must stick to the numbers it is given.
	model.SetTemperature(0.2)
	model.SetTopK(40)
	model.SetTopP(0.95)

	return &Client{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Narrate asks the model for a short prose reading of a Markdown summary.
func (c *Client) Narrate(ctx context.Context, summaryMarkdown string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(summaryMarkdown)))
	if err != nil {
		return "", fmt.Errorf("failed to generate narrative: %w", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			return strings.TrimSpace(sb.String()), nil
		}
	}

	return "", fmt.Errorf("no content generated")
}

// BuildPrompt wraps the summary in the instructions sent to the model.
func BuildPrompt(summaryMarkdown string) string {
	return `You are given aggregate statistics about the issues and pull requests of one or more software projects.
Each item was classified Green (merged, or closed as completed) or Red (closed without completion).
Authors are classified as Bot, Member, Contributor or User.

Write 2-4 short paragraphs in Markdown for a maintainer audience:
1. How items typically end, and how long they live.
2. Differences between issues and pull requests.
3. Differences between author roles, noting small sample sizes where relevant.

Only use numbers that appear in the statistics. Do not invent data.

Statistics:
` + summaryMarkdown
}
