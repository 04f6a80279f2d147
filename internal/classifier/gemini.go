package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"google.golang.org/api/option"
)

// Gemini labels stickers with a Google Gemini vision model
type Gemini struct {
	apiKey string
	model  string
}

func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{apiKey: apiKey, model: model}
}

func (g *Gemini) Classify(ctx context.Context, file *models.SelectedFile) (models.LabelSet, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0.1)

	format := strings.TrimPrefix(file.ContentType, "image/")
	resp, err := model.GenerateContent(ctx, genai.ImageData(format, file.Data), genai.Text(labelPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, &UploadError{Message: "no candidates returned from Gemini"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &UploadError{Message: "empty content returned from Gemini"}
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, &UploadError{Message: "unexpected response format from Gemini"}
	}

	labels, err := parseLabels(string(txt))
	if err != nil {
		return nil, &UploadError{Message: err.Error()}
	}
	slog.Info("Labelled sticker", "provider", "gemini", "model", g.model, "labels", len(labels))
	return labels, nil
}
