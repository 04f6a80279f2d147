package widget

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/config"
	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) (models.LabelSet, error)
}

func (f *fakeClassifier) Classify(ctx context.Context, _ *models.SelectedFile) (models.LabelSet, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(ctx, call)
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func placeholderClassifier() *fakeClassifier {
	return &fakeClassifier{fn: func(context.Context, int) (models.LabelSet, error) {
		return models.LabelSet{"pick", "plectrum", "lectron"}, nil
	}}
}

func catFile(t *testing.T) *models.SelectedFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return &models.SelectedFile{Name: "cat.png", Size: 10240, ContentType: "image/png", Data: buf.Bytes()}
}

func fixedClock(w *Widget) time.Time {
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
	w.now = func() time.Time { return now }
	return now
}

func TestSubmitSuccess(t *testing.T) {
	w := New("s1", placeholderClassifier())
	now := fixedClock(w)
	w.Select(catFile(t))

	labels, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LabelSet{"pick", "plectrum", "lectron"}, labels)

	snap := w.Snapshot()
	assert.False(t, snap.UI.Loading)
	assert.Empty(t, snap.UI.Error)
	assert.Equal(t, models.PhaseSucceeded, snap.Phase)
	assert.Equal(t, models.LabelSet{"pick", "plectrum", "lectron"}, snap.Labels)
	require.Len(t, snap.History, 1)
	assert.Equal(t, models.HistoryEntry{
		FileName:  "cat.png",
		FileSize:  10240,
		Label:     "pick, plectrum, lectron",
		Timestamp: now.Format(history.TimestampLayout),
	}, snap.History[0])
}

func TestSubmitAppendsAtFront(t *testing.T) {
	w := New("s1", placeholderClassifier())
	w.Select(catFile(t))
	_, err := w.Submit(context.Background())
	require.NoError(t, err)

	dog := catFile(t)
	dog.Name = "dog.png"
	w.Select(dog)
	_, err = w.Submit(context.Background())
	require.NoError(t, err)

	snap := w.Snapshot()
	require.Len(t, snap.History, 2)
	assert.Equal(t, "dog.png", snap.History[0].FileName)
	assert.Equal(t, "cat.png", snap.History[1].FileName)
}

func TestSubmitWithoutFile(t *testing.T) {
	fake := placeholderClassifier()
	w := New("s1", fake)

	_, err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoFileSelected)
	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoFileSelected)

	snap := w.Snapshot()
	assert.Equal(t, 0, fake.Calls())
	assert.Empty(t, snap.History)
	assert.False(t, snap.UI.Loading)
	assert.Equal(t, models.PhaseIdle, snap.Phase)
}

func TestSubmitServerError(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			rw.WriteHeader(http.StatusInternalServerError)
			_, _ = rw.Write([]byte(`{"message":"bad image"}`))
			return
		}
		_, _ = rw.Write([]byte(`{"anything":true}`))
	}))
	defer server.Close()

	w := New("s1", classifier.NewEndpoint(server.URL, config.LabelSourcePlaceholder, 5*time.Second))
	w.Select(catFile(t))
	_, err := w.Submit(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	_, err = w.Submit(context.Background())
	require.Error(t, err)

	snap := w.Snapshot()
	assert.Equal(t, "bad image", snap.UI.Error)
	assert.False(t, snap.UI.Loading)
	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, models.LabelSet{"pick", "plectrum", "lectron"}, snap.Labels)
	assert.Len(t, snap.History, 1)
}

func TestSubmitOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	w := New("s1", classifier.NewEndpoint(url, config.LabelSourcePlaceholder, time.Second))
	w.Select(catFile(t))
	_, err := w.Submit(context.Background())
	require.Error(t, err)

	snap := w.Snapshot()
	assert.Equal(t, classifier.MsgTransport, snap.UI.Error)
	assert.False(t, snap.UI.Loading)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.Labels)
}

func TestErrorClearedOnNewSubmission(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeClassifier{fn: func(ctx context.Context, call int) (models.LabelSet, error) {
		if call == 1 {
			return nil, &classifier.UploadError{Status: 500, Message: "bad image"}
		}
		<-release
		return models.LabelSet{"pick"}, nil
	}}

	w := New("s1", fake)
	w.Select(catFile(t))
	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "bad image", w.Snapshot().UI.Error)

	results, err := w.Start(context.Background())
	require.NoError(t, err)

	snap := w.Snapshot()
	assert.True(t, snap.UI.Loading)
	assert.Empty(t, snap.UI.Error)
	assert.Equal(t, models.PhaseSubmitting, snap.Phase)

	close(release)
	r := <-results
	require.NoError(t, r.Err)
	assert.False(t, w.Snapshot().UI.Loading)
}

func TestNewerSubmissionSupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	fake := &fakeClassifier{fn: func(ctx context.Context, call int) (models.LabelSet, error) {
		if call == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return models.LabelSet{"second"}, nil
	}}

	w := New("s1", fake)
	w.Select(catFile(t))

	first, err := w.Start(context.Background())
	require.NoError(t, err)
	<-started

	second, err := w.Start(context.Background())
	require.NoError(t, err)

	r1 := <-first
	r2 := <-second
	assert.True(t, r1.Stale)
	assert.ErrorIs(t, r1.Err, context.Canceled)
	assert.False(t, r2.Stale)

	snap := w.Snapshot()
	assert.Equal(t, models.LabelSet{"second"}, snap.Labels)
	assert.Empty(t, snap.UI.Error)
	assert.False(t, snap.UI.Loading)
	assert.Len(t, snap.History, 1)
}

func TestAwaitPreview(t *testing.T) {
	w := New("s1", placeholderClassifier())

	_, err := w.AwaitPreview(context.Background())
	assert.ErrorIs(t, err, ErrNoFileSelected)

	w.Select(catFile(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := w.AwaitPreview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Width)
	assert.NotNil(t, w.Snapshot().Preview)
}

func TestSaveAndCopy(t *testing.T) {
	fake := &fakeClassifier{fn: func(context.Context, int) (models.LabelSet, error) {
		return models.LabelSet{"a", "b"}, nil
	}}
	w := New("s1", fake)
	w.Select(catFile(t))

	_, err := w.Save()
	assert.Error(t, err)

	_, err = w.AwaitPreview(context.Background())
	require.NoError(t, err)
	_, err = w.Submit(context.Background())
	require.NoError(t, err)

	d, err := w.Save()
	require.NoError(t, err)
	assert.Equal(t, "a_b.png", d.Filename)
	assert.Equal(t, "image/png", d.ContentType)

	c, err := w.CopyLabel(1)
	require.NoError(t, err)
	assert.Equal(t, "b", c.Text)
	assert.Equal(t, "Copied to clipboard!", c.Message)

	hc, err := w.CopyHistory(0)
	require.NoError(t, err)
	assert.Equal(t, "cat.png, Label: a, b", hc.Text)

	_, err = w.CopyHistory(1)
	assert.True(t, errors.Is(err, history.ErrEntryNotFound))
}

func TestExportHistory(t *testing.T) {
	w := New("s1", placeholderClassifier())
	w.Select(catFile(t))
	_, err := w.Submit(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.ExportHistory(&buf, history.FormatYAML))
	assert.Contains(t, buf.String(), "filename: cat.png")
}
