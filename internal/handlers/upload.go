package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
	"github.com/lehigh-university-libraries/stickerlabel/internal/widget"
)

// HandleSelect stores the picked image as the session's selected file.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.selector.MaxBytes()+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("files")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	selected, err := h.selector.Read(header.Filename, file)
	switch {
	case errors.Is(err, selector.ErrUnsupportedType):
		h.writeError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	case errors.Is(err, selector.ErrFileTooLarge):
		h.writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	wg := h.session(w, r)
	wg.Select(selected)

	if wantsJSON(r) {
		if _, err := wg.AwaitPreview(r.Context()); err != nil {
			h.writeError(w, "Failed to build preview: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, wg.Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSubmit starts an upload and returns to the page, which polls while
// the upload is outstanding.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	wg := h.session(w, r)
	// The upload outlives this request.
	if _, err := wg.Start(context.Background()); errors.Is(err, widget.ErrNoFileSelected) {
		http.Redirect(w, r, "/?prompt=select", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSubmitJSON uploads and waits for the outcome.
func (h *Handler) HandleSubmitJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	wg := h.session(w, r)
	results, err := wg.Start(context.Background())
	if errors.Is(err, widget.ErrNoFileSelected) {
		h.writeError(w, widget.PromptSelectFile, http.StatusBadRequest)
		return
	}

	select {
	case res := <-results:
		if res.Err != nil && !res.Stale {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
		}
		h.writeJSON(w, submitResponse(wg, res))
	case <-r.Context().Done():
		return
	}
}

type submitResult struct {
	Labels  []string              `json:"labels,omitempty"`
	Message string                `json:"message,omitempty"`
	Stale   bool                  `json:"stale,omitempty"`
	State   models.WidgetSnapshot `json:"state"`
}

func submitResponse(wg *widget.Widget, res widget.Result) submitResult {
	out := submitResult{Labels: res.Labels, Stale: res.Stale, State: wg.Snapshot()}
	if res.Err != nil {
		out.Message = classifier.UserMessage(res.Err)
	}
	return out
}
