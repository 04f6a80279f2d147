package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/widget"
)

// SessionStore keeps one widget per browser session, in memory only.
type SessionStore struct {
	sessions   map[string]*widget.Widget
	classifier classifier.Classifier
	mu         sync.RWMutex
}

func New(c classifier.Classifier) *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*widget.Widget),
		classifier: c,
	}
}

// Create starts a new session with a fresh widget.
func (s *SessionStore) Create() *widget.Widget {
	w := widget.New(uuid.New().String(), s.classifier)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[w.ID()] = w
	return w
}

func (s *SessionStore) Get(sessionID string) (*widget.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, exists := s.sessions[sessionID]
	return w, exists
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	w, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		w.Close()
	}
}

// Prune drops sessions idle for longer than maxAge and returns how many were removed.
func (s *SessionStore) Prune(maxAge time.Duration, now time.Time) int {
	s.mu.Lock()
	var stale []*widget.Widget
	for id, w := range s.sessions {
		if now.Sub(w.LastAccessed()) > maxAge {
			stale = append(stale, w)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

// CloseAll cancels every session's in-flight work. Used on shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	all := make([]*widget.Widget, 0, len(s.sessions))
	for _, w := range s.sessions {
		all = append(all, w)
	}
	s.mu.Unlock()

	for _, w := range all {
		w.Close()
	}
}
