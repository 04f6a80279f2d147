package models

import "time"

// SelectedFile is the image the user picked, held until the next pick replaces it
type SelectedFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// PreviewImage is a renderable form of a SelectedFile
type PreviewImage struct {
	DataURI     string `json:"data_uri"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// LabelSet is an ordered list of classification labels. Order is display order.
type LabelSet []string

// HistoryEntry records one successful upload
type HistoryEntry struct {
	FileName  string `json:"file_name" yaml:"filename" parquet:"file_name"`
	FileSize  int64  `json:"file_size" yaml:"filesize" parquet:"file_size"`
	Label     string `json:"label" yaml:"label" parquet:"label"`
	Timestamp string `json:"timestamp" yaml:"timestamp" parquet:"timestamp"`
}

// UIState tracks the lifecycle of the current upload attempt
type UIState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Phase is the upload lifecycle position
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// WidgetSnapshot is a read-only copy of a widget's state, safe to render or encode
type WidgetSnapshot struct {
	SessionID string         `json:"session_id"`
	File      *SelectedFile  `json:"file,omitempty"`
	Preview   *PreviewImage  `json:"preview,omitempty"`
	Labels    LabelSet       `json:"labels,omitempty"`
	History   []HistoryEntry `json:"history"`
	UI        UIState        `json:"ui"`
	Phase     Phase          `json:"phase"`
	CreatedAt time.Time      `json:"created_at"`
}
