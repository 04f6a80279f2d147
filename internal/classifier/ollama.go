package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

// Ollama labels stickers with a vision model served by Ollama
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Classify(ctx context.Context, file *models.SelectedFile) (models.LabelSet, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": labelPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(file.Data)},
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("Ollama returned an error", "status", resp.StatusCode, "body", string(body))
		return nil, &UploadError{Status: resp.StatusCode, Message: MsgUploadFailed}
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	labels, err := parseLabels(response.Response)
	if err != nil {
		return nil, &UploadError{Status: resp.StatusCode, Message: err.Error()}
	}
	slog.Info("Labelled sticker", "provider", "ollama", "model", o.model, "labels", len(labels))
	return labels, nil
}
