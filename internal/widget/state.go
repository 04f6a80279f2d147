package widget

import (
	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

// State is the complete widget state. It is only changed through Reduce.
type State struct {
	File    *models.SelectedFile
	Preview *models.PreviewImage
	Labels  models.LabelSet
	History *history.Log
	UI      models.UIState
	Phase   models.Phase

	previewGen uint64
	uploadGen  uint64
}

func newState() State {
	return State{
		History: history.New(),
		Phase:   models.PhaseIdle,
	}
}

// Event is a state transition. Async results carry the generation they were
// started under so that stale results can be dropped.
type Event interface {
	isEvent()
}

type FileSelected struct {
	File *models.SelectedFile
	Gen  uint64
}

type PreviewReady struct {
	Preview *models.PreviewImage
	Gen     uint64
}

type SubmitStarted struct {
	Gen uint64
}

type SubmitSucceeded struct {
	Gen    uint64
	Labels models.LabelSet
	Entry  models.HistoryEntry
}

type SubmitFailed struct {
	Gen     uint64
	Message string
}

func (FileSelected) isEvent()    {}
func (PreviewReady) isEvent()    {}
func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Reduce applies e to s and reports whether it was applied. Results from a
// superseded preview read or upload are ignored.
func Reduce(s *State, e Event) bool {
	switch e := e.(type) {
	case FileSelected:
		s.File = e.File
		s.Preview = nil
		s.previewGen = e.Gen
	case PreviewReady:
		if e.Gen != s.previewGen {
			return false
		}
		s.Preview = e.Preview
	case SubmitStarted:
		s.uploadGen = e.Gen
		s.UI.Loading = true
		s.UI.Error = ""
		s.Phase = models.PhaseSubmitting
	case SubmitSucceeded:
		if e.Gen != s.uploadGen {
			return false
		}
		s.Labels = e.Labels
		s.History.Prepend(e.Entry)
		s.UI.Loading = false
		s.Phase = models.PhaseSucceeded
	case SubmitFailed:
		if e.Gen != s.uploadGen {
			return false
		}
		s.UI.Error = e.Message
		s.UI.Loading = false
		s.Phase = models.PhaseFailed
	default:
		return false
	}
	return true
}
