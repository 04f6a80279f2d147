// Package history keeps the newest-first record of successful uploads for a
// single session. It is never persisted.
package history

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

// TimestampLayout renders upload times the way a US-locale browser would.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

var ErrEntryNotFound = errors.New("history entry not found")

// Log is append-only. Callers serialise access; the widget holds its lock
// around every call.
type Log struct {
	entries []models.HistoryEntry
}

func New() *Log {
	return &Log{}
}

// NewEntry builds the record for a successful upload of file.
func NewEntry(file *models.SelectedFile, labels models.LabelSet, now time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		FileName:  file.Name,
		FileSize:  file.Size,
		Label:     strings.Join(labels, ", "),
		Timestamp: now.Format(TimestampLayout),
	}
}

// Prepend places e at index 0.
func (l *Log) Prepend(e models.HistoryEntry) {
	l.entries = append([]models.HistoryEntry{e}, l.entries...)
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Entry(i int) (models.HistoryEntry, error) {
	if i < 0 || i >= len(l.entries) {
		return models.HistoryEntry{}, fmt.Errorf("%w: index %d of %d", ErrEntryNotFound, i, len(l.entries))
	}
	return l.entries[i], nil
}

// SizeKB converts bytes to whole kilobytes, rounding half up.
func SizeKB(size int64) int64 {
	return int64(math.Floor(float64(size)/1024 + 0.5))
}

// CopyText is the clipboard text for a history entry.
func CopyText(e models.HistoryEntry) string {
	return e.FileName + ", Label: " + e.Label
}
