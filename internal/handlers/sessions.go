package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/presenter"
)

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.session(w, r).Snapshot())
}

// HandleCopy returns the clipboard text for a label row. The page writes it
// to the clipboard and shows the acknowledgement.
func (h *Handler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	row, err := indexParam(r, "row")
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.session(w, r).CopyLabel(row)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, c)
}

func (h *Handler) HandleHistoryCopy(w http.ResponseWriter, r *http.Request) {
	entry, err := indexParam(r, "entry")
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.session(w, r).CopyHistory(entry)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, c)
}

// HandleSave downloads the previewed image. The row parameter is accepted
// but every row yields the same file.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	d, err := h.session(w, r).Save()
	if errors.Is(err, presenter.ErrNothingToSave) {
		h.writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to prepare download: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	if _, err := w.Write(d.Data); err != nil {
		slog.Error("Unable to write download", "err", err)
	}
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(history.FormatJSON)
	}
	format, err := history.ParseFormat(name)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := h.session(w, r).ExportHistory(&buf, format); err != nil {
		h.writeError(w, "Failed to export history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(time.Now())))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write export", "err", err)
	}
}

// HandleHealth answers OK. With ?deep=1 it also probes the classifier when
// the classifier supports it.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") != "" {
		if hc, ok := h.classifier.(interface{ Health(context.Context) error }); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := hc.Health(ctx); err != nil {
				h.writeError(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
	}
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}
