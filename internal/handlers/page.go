package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/lehigh-university-libraries/stickerlabel/internal/presenter"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
	"github.com/lehigh-university-libraries/stickerlabel/internal/widget"
)

type pageData struct {
	models.WidgetSnapshot
	Rows    []presenter.Row
	Accept  string
	Prompt  string
	Refresh bool
}

// HandlePage renders the widget for the caller's session.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.session(w, r).Snapshot()
	data := pageData{
		WidgetSnapshot: snap,
		Rows:           presenter.Rows(snap.Labels),
		Accept:         selector.Accept,
		Refresh:        snap.UI.Loading || (snap.File != nil && snap.Preview == nil),
	}
	if r.URL.Query().Get("prompt") == "select" {
		data.Prompt = widget.PromptSelectFile
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.writeError(w, "Failed to render page: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write page", "err", err)
	}
}
