package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", ".json":
		return FormatJSON, nil
	case "yaml", "yml", ".yaml", ".yml":
		return FormatYAML, nil
	case "parquet", ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (supported: json, yaml, parquet)", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/json"
	}
}

// Filename is the suggested download name for an export taken at t.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("sticker_history_%s.%s", t.Format("2006-01-02_15-04-05"), f)
}

// ExportDoc is the document written by the JSON and YAML exporters.
type ExportDoc struct {
	ExportedAt string                `json:"exported_at" yaml:"exportedat"`
	Count      int                   `json:"count" yaml:"count"`
	Entries    []models.HistoryEntry `json:"entries" yaml:"entries"`
}

// Export writes entries, newest first, in the given format.
func Export(w io.Writer, f Format, entries []models.HistoryEntry, now time.Time) error {
	doc := ExportDoc{
		ExportedAt: now.Format(time.RFC3339),
		Count:      len(entries),
		Entries:    entries,
	}

	switch f {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return encoder.Close()
	case FormatParquet:
		writer := parquet.NewGenericWriter[models.HistoryEntry](w)
		if _, err := writer.Write(entries); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to close parquet writer: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s", f)
	}
}
