// Package widget holds one upload session: the selected file, its preview,
// the last labels, the upload history and the loading/error state.
package widget

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/lehigh-university-libraries/stickerlabel/internal/presenter"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
)

// PromptSelectFile is shown when submit is attempted with no file.
const PromptSelectFile = "Please select a sticker!"

var ErrNoFileSelected = errors.New("no file selected")

// Result is the outcome of one upload attempt. Stale is set when a newer
// attempt superseded this one and the outcome was not applied.
type Result struct {
	Labels models.LabelSet
	Err    error
	Stale  bool
}

type Widget struct {
	id         string
	createdAt  time.Time
	classifier classifier.Classifier
	now        func() time.Time

	mu            sync.Mutex
	state         State
	lastAccessed  time.Time
	previewDone   chan struct{}
	previewClosed bool
	cancelUpload  context.CancelFunc
	wg            sync.WaitGroup
}

func New(id string, c classifier.Classifier) *Widget {
	now := time.Now()
	return &Widget{
		id:           id,
		createdAt:    now,
		classifier:   c,
		now:          time.Now,
		state:        newState(),
		lastAccessed: now,
	}
}

func (w *Widget) ID() string {
	return w.id
}

// Select replaces the selected file and starts building its preview in the
// background.
func (w *Widget) Select(file *models.SelectedFile) {
	w.mu.Lock()
	gen := w.state.previewGen + 1
	Reduce(&w.state, FileSelected{File: file, Gen: gen})
	if w.previewDone != nil && !w.previewClosed {
		close(w.previewDone)
	}
	w.previewDone = make(chan struct{})
	w.previewClosed = false
	w.lastAccessed = w.now()
	w.mu.Unlock()

	slog.Info("File selected", "session_id", w.id, "file", file.Name, "size", file.Size)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		preview := selector.Preview(file)

		w.mu.Lock()
		defer w.mu.Unlock()
		if !Reduce(&w.state, PreviewReady{Preview: preview, Gen: gen}) {
			slog.Debug("Discarding stale preview", "session_id", w.id, "file", file.Name)
			return
		}
		close(w.previewDone)
		w.previewClosed = true
	}()
}

// AwaitPreview blocks until the current file's preview is available.
func (w *Widget) AwaitPreview(ctx context.Context) (*models.PreviewImage, error) {
	for {
		w.mu.Lock()
		if w.state.Preview != nil {
			p := *w.state.Preview
			w.mu.Unlock()
			return &p, nil
		}
		done := w.previewDone
		w.mu.Unlock()

		if done == nil {
			return nil, ErrNoFileSelected
		}
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Start begins an upload of the current file. With no file selected it
// returns ErrNoFileSelected and changes nothing. A newer Start cancels any
// upload still in flight.
func (w *Widget) Start(ctx context.Context) (<-chan Result, error) {
	w.mu.Lock()
	if w.state.File == nil {
		w.mu.Unlock()
		return nil, ErrNoFileSelected
	}

	file := w.state.File
	gen := w.state.uploadGen + 1
	Reduce(&w.state, SubmitStarted{Gen: gen})
	if w.cancelUpload != nil {
		w.cancelUpload()
	}
	uploadCtx, cancel := context.WithCancel(ctx)
	w.cancelUpload = cancel
	w.lastAccessed = w.now()
	w.mu.Unlock()

	slog.Info("Uploading sticker", "session_id", w.id, "file", file.Name, "attempt", gen)

	results := make(chan Result, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		results <- w.upload(uploadCtx, file, gen)
	}()
	return results, nil
}

func (w *Widget) upload(ctx context.Context, file *models.SelectedFile, gen uint64) Result {
	labels, err := w.classifier.Classify(ctx, file)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		msg := classifier.UserMessage(err)
		applied := Reduce(&w.state, SubmitFailed{Gen: gen, Message: msg})
		slog.Error("Error uploading", "session_id", w.id, "file", file.Name, "attempt", gen, "err", err, "stale", !applied)
		return Result{Err: err, Stale: !applied}
	}

	entry := history.NewEntry(file, labels, w.now())
	applied := Reduce(&w.state, SubmitSucceeded{Gen: gen, Labels: labels, Entry: entry})
	if applied {
		slog.Info("Sticker classified", "session_id", w.id, "file", file.Name, "labels", entry.Label)
	} else {
		slog.Debug("Discarding stale upload result", "session_id", w.id, "attempt", gen)
	}
	return Result{Labels: labels, Stale: !applied}
}

// Submit uploads the current file and waits for the outcome.
func (w *Widget) Submit(ctx context.Context) (models.LabelSet, error) {
	results, err := w.Start(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-results:
		return r.Labels, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns a copy of the state for rendering.
func (w *Widget) Snapshot() models.WidgetSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := models.WidgetSnapshot{
		SessionID: w.id,
		History:   w.state.History.Entries(),
		UI:        w.state.UI,
		Phase:     w.state.Phase,
		CreatedAt: w.createdAt,
	}
	if w.state.File != nil {
		f := *w.state.File
		snap.File = &f
	}
	if w.state.Preview != nil {
		p := *w.state.Preview
		snap.Preview = &p
	}
	if len(w.state.Labels) > 0 {
		snap.Labels = append(models.LabelSet(nil), w.state.Labels...)
	}
	return snap
}

func (w *Widget) CopyLabel(row int) (presenter.Copy, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return presenter.CopyLabel(w.state.Labels, row)
}

func (w *Widget) CopyHistory(i int) (presenter.Copy, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.state.History.Entry(i)
	if err != nil {
		return presenter.Copy{}, err
	}
	return presenter.CopyHistory(e), nil
}

// Save returns the current preview as a download named after all labels.
func (w *Widget) Save() (*presenter.Download, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return presenter.Save(w.state.File, w.state.Preview, w.state.Labels)
}

func (w *Widget) ExportHistory(out io.Writer, f history.Format) error {
	w.mu.Lock()
	entries := w.state.History.Entries()
	w.mu.Unlock()
	return history.Export(out, f, entries, w.now())
}

func (w *Widget) Touch() {
	w.mu.Lock()
	w.lastAccessed = w.now()
	w.mu.Unlock()
}

func (w *Widget) LastAccessed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAccessed
}

// Close cancels any upload in flight and waits for background work to finish.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.cancelUpload != nil {
		w.cancelUpload()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Wait blocks until background preview reads and uploads have finished.
func (w *Widget) Wait() {
	w.wg.Wait()
}
