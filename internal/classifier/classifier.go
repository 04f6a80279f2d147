// Package classifier sends a selected image to a remote labelling service.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/stickerlabel/internal/config"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

const (
	MsgUploadFailed = "Failed to upload."
	MsgTransport    = "Error occurred while uploading."
)

// PlaceholderLabels is returned for every successful endpoint upload unless
// labels are configured to come from the response.
var PlaceholderLabels = models.LabelSet{"pick", "plectrum", "lectron"}

var ErrNoLabels = errors.New("classifier returned no labels")

// Classifier labels an image using an external service.
type Classifier interface {
	Classify(ctx context.Context, file *models.SelectedFile) (models.LabelSet, error)
}

// UploadError is a failure reported by the service itself, as opposed to a
// transport failure.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// UserMessage maps a Classify error to the text shown to the user.
func UserMessage(err error) string {
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) && uploadErr.Message != "" {
		return uploadErr.Message
	}
	return MsgTransport
}

// New builds the classifier selected by cfg.Provider.
func New(cfg *config.Config) (Classifier, error) {
	switch cfg.Provider {
	case config.ProviderEndpoint:
		return NewEndpoint(cfg.Endpoint, cfg.LabelSource, cfg.UploadTimeout), nil
	case config.ProviderGemini:
		return NewGemini(cfg.GeminiAPIKey, cfg.DefaultModel()), nil
	case config.ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.DefaultModel(), cfg.UploadTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func placeholder() models.LabelSet {
	labels := make(models.LabelSet, len(PlaceholderLabels))
	copy(labels, PlaceholderLabels)
	return labels
}

const labelPrompt = `You are labelling a sticker image for a small catalogue.

Return between one and three short, lowercase labels naming what the sticker depicts,
most specific first.

Respond with ONLY a JSON array of strings, for example: ["guitar pick", "plectrum"]`

// parseLabels reads labels out of free-form model output. It accepts a JSON
// array, a JSON object with a "labels" array, or comma/newline separated text.
func parseLabels(text string) (models.LabelSet, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		var obj struct {
			Labels []string `json:"labels"`
			Label  string   `json:"label"`
		}
		if err := json.Unmarshal([]byte(text), &obj); err == nil {
			raw = obj.Labels
			if len(raw) == 0 && obj.Label != "" {
				raw = []string{obj.Label}
			}
		} else {
			raw = strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' })
		}
	}

	labels := make(models.LabelSet, 0, len(raw))
	for _, l := range raw {
		l = strings.Trim(strings.TrimSpace(l), `"'`)
		if l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return labels, nil
}
