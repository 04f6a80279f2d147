package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/stickerlabel/internal/config"
	"github.com/spf13/cobra"
)

// classifierFlags override the environment for the classifier settings
// shared by serve and classify.
type classifierFlags struct {
	endpoint    string
	provider    string
	model       string
	labelSource string
}

func (f *classifierFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "Classification endpoint URL (env: STICKER_ENDPOINT)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Classifier backend: endpoint, gemini, or ollama (env: STICKER_PROVIDER)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name for gemini or ollama (env: STICKER_MODEL)")
	cmd.Flags().StringVar(&f.labelSource, "label-source", "", "Where labels come from: placeholder or response (env: STICKER_LABEL_SOURCE)")
}

// load reads the environment and applies any flags that were set.
func (f *classifierFlags) load() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f.endpoint != "" {
		cfg.Endpoint = f.endpoint
	}
	if f.provider != "" {
		cfg.Provider = f.provider
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.labelSource != "" {
		cfg.LabelSource = f.labelSource
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
