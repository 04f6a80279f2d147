package presenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
)

// CopiedMessage acknowledges every copy action. Whether the clipboard write
// succeeded is not reported.
const CopiedMessage = "Copied to clipboard!"

var (
	ErrNothingToSave = errors.New("nothing to save")
	ErrInvalidRow    = errors.New("label row not found")
)

type Row struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
}

// Rows numbers labels from 1 in display order.
func Rows(labels models.LabelSet) []Row {
	rows := make([]Row, len(labels))
	for i, l := range labels {
		rows[i] = Row{Number: i + 1, Label: l}
	}
	return rows
}

// Copy is the outcome of a copy action: the clipboard text and the acknowledgement.
type Copy struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

// CopyLabel returns the clipboard text for the row at index i (0-based).
func CopyLabel(labels models.LabelSet, i int) (Copy, error) {
	if i < 0 || i >= len(labels) {
		return Copy{}, fmt.Errorf("%w: index %d of %d", ErrInvalidRow, i, len(labels))
	}
	return Copy{Text: labels[i], Message: CopiedMessage}, nil
}

// CopyHistory returns the clipboard text for a history entry.
func CopyHistory(e models.HistoryEntry) Copy {
	return Copy{Text: history.CopyText(e), Message: CopiedMessage}
}

// SaveFilename joins every current label, so every row offers the same name.
func SaveFilename(labels models.LabelSet) string {
	return strings.Join(labels, "_") + ".png"
}

type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Save prepares a download of the previewed image. The bytes keep their
// original encoding even though the name always ends in .png.
func Save(file *models.SelectedFile, preview *models.PreviewImage, labels models.LabelSet) (*Download, error) {
	if file == nil || len(labels) == 0 {
		return nil, ErrNothingToSave
	}
	if preview == nil {
		return nil, fmt.Errorf("%w: preview not ready", ErrNothingToSave)
	}

	data, contentType, err := selector.DecodeDataURI(preview.DataURI)
	if err != nil {
		return nil, err
	}

	return &Download{
		Filename:    SaveFilename(labels),
		ContentType: contentType,
		Data:        data,
	}, nil
}
