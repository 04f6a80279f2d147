package handlers

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
	"github.com/lehigh-university-libraries/stickerlabel/internal/storage"
	"github.com/lehigh-university-libraries/stickerlabel/internal/widget"
)

// SessionCookie carries the browser's session id.
const SessionCookie = "stickerlabel_session"

//go:embed templates/*.html
var templateFS embed.FS

type Handler struct {
	sessionStore *storage.SessionStore
	selector     *selector.Selector
	classifier   classifier.Classifier
	page         *template.Template
}

func New(store *storage.SessionStore, sel *selector.Selector, c classifier.Classifier) (*Handler, error) {
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"sizeKB": history.SizeKB,
		// previews are data URIs built by selector.Preview
		"safeURL": func(s string) template.URL { return template.URL(s) },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Handler{
		sessionStore: store,
		selector:     sel,
		classifier:   c,
		page:         page,
	}, nil
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.HandlePage)
	mux.HandleFunc("/select", h.HandleSelect)
	mux.HandleFunc("/submit", h.HandleSubmit)
	mux.HandleFunc("/save", h.HandleSave)
	mux.HandleFunc("/api/select", h.HandleSelect)
	mux.HandleFunc("/api/submit", h.HandleSubmitJSON)
	mux.HandleFunc("/api/state", h.HandleState)
	mux.HandleFunc("/api/copy", h.HandleCopy)
	mux.HandleFunc("/api/history/copy", h.HandleHistoryCopy)
	mux.HandleFunc("/api/history/export", h.HandleExport)
	mux.HandleFunc("/healthcheck", h.HandleHealth)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}

// Session helpers

// session returns the caller's widget, starting a new session when the
// cookie is missing or refers to a session that no longer exists.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *widget.Widget {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if wg, ok := h.sessionStore.Get(c.Value); ok {
			wg.Touch()
			return wg
		}
	}

	wg := h.sessionStore.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    wg.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("Session created", "session_id", wg.ID())
	return wg
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func indexParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return i, nil
}
