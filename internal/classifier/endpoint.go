package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/config"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

// Endpoint posts the image as multipart field "file" to a classification URL.
type Endpoint struct {
	url         string
	labelSource string
	httpClient  *http.Client
}

// NewEndpoint creates an endpoint client. A zero timeout means requests are
// bounded only by the caller's context.
func NewEndpoint(url, labelSource string, timeout time.Duration) *Endpoint {
	return &Endpoint{
		url:         url,
		labelSource: labelSource,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type endpointResponse struct {
	Status  string   `json:"status"`
	Label   string   `json:"label"`
	Labels  []string `json:"labels"`
	Message string   `json:"message"`
}

// Classify uploads the file. On a 2xx response the body is logged and, in
// placeholder mode, discarded.
func (e *Endpoint) Classify(ctx context.Context, file *models.SelectedFile) (models.LabelSet, error) {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result endpointResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Server error", "status", resp.StatusCode, "message", result.Message)
		msg := result.Message
		if msg == "" {
			msg = MsgUploadFailed
		}
		return nil, &UploadError{Status: resp.StatusCode, Message: msg}
	}

	slog.Debug("Classifier response", "status", resp.StatusCode, "body_status", result.Status, "label", result.Label, "labels", result.Labels)

	if e.labelSource != config.LabelSourceResponse {
		return placeholder(), nil
	}

	if result.Status == "error" {
		msg := result.Message
		if msg == "" {
			msg = MsgUploadFailed
		}
		return nil, &UploadError{Status: resp.StatusCode, Message: msg}
	}

	labels := models.LabelSet(result.Labels)
	if len(labels) == 0 && result.Label != "" {
		labels = models.LabelSet{result.Label}
	}
	if len(labels) == 0 {
		return nil, &UploadError{Status: resp.StatusCode, Message: ErrNoLabels.Error()}
	}
	return labels, nil
}

// Health reports whether the endpoint answers HTTP at all. Any status counts.
func (e *Endpoint) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(file *models.SelectedFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", file.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
