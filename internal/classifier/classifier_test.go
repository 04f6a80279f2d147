package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/config"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.LabelSet
		wantErr bool
	}{
		{name: "json array", input: `["pick", "plectrum"]`, want: models.LabelSet{"pick", "plectrum"}},
		{name: "fenced json", input: "```json\n[\"cat\"]\n```", want: models.LabelSet{"cat"}},
		{name: "labels object", input: `{"labels":["a","b","c"]}`, want: models.LabelSet{"a", "b", "c"}},
		{name: "label object", input: `{"label":"dog"}`, want: models.LabelSet{"dog"}},
		{name: "comma text", input: "pick, plectrum ,lectron", want: models.LabelSet{"pick", "plectrum", "lectron"}},
		{name: "newline text", input: "pick\n\"plectrum\"\n", want: models.LabelSet{"pick", "plectrum"}},
		{name: "empty", input: "  ", wantErr: true},
		{name: "empty array", input: "[]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLabels(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoLabels)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "bad image", UserMessage(&UploadError{Status: 500, Message: "bad image"}))
	assert.Equal(t, MsgTransport, UserMessage(&UploadError{Status: 500}))
	assert.Equal(t, MsgTransport, UserMessage(errors.New("dial tcp: connection refused")))
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		want     any
		wantErr  bool
	}{
		{config.ProviderEndpoint, &Endpoint{}, false},
		{config.ProviderGemini, &Gemini{}, false},
		{config.ProviderOllama, &Ollama{}, false},
		{"openai", nil, true},
	}

	for _, tt := range tests {
		c, err := New(&config.Config{Provider: tt.provider, Endpoint: config.DefaultEndpoint, LabelSource: config.LabelSourcePlaceholder})
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.IsType(t, tt.want, c)
	}
}

func TestGemini_MissingKey(t *testing.T) {
	_, err := NewGemini("", "gemini-1.5-flash").Classify(context.Background(), testFile())
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestOllama_Classify(t *testing.T) {
	t.Run("labels from response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)

			var req struct {
				Model  string   `json:"model"`
				Images []string `json:"images"`
				Stream bool     `json:"stream"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llava:13b", req.Model)
			assert.Len(t, req.Images, 1)
			assert.False(t, req.Stream)

			_ = json.NewEncoder(w).Encode(map[string]string{"response": `{"labels":["guitar pick"]}`})
		}))
		defer server.Close()

		labels, err := NewOllama(server.URL, "llava:13b", 5*time.Second).Classify(context.Background(), testFile())
		require.NoError(t, err)
		assert.Equal(t, models.LabelSet{"guitar pick"}, labels)
	})

	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewOllama(server.URL, "missing", 5*time.Second).Classify(context.Background(), testFile())
		assert.Equal(t, MsgUploadFailed, UserMessage(err))
	})
}
