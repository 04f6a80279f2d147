package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

type nopClassifier struct{}

func (nopClassifier) Classify(context.Context, *models.SelectedFile) (models.LabelSet, error) {
	return models.LabelSet{"pick"}, nil
}

func TestCreateAndGet(t *testing.T) {
	s := New(nopClassifier{})
	w := s.Create()

	if w.ID() == "" {
		t.Fatal("Expected a session id")
	}
	got, ok := s.Get(w.ID())
	if !ok || got != w {
		t.Fatalf("Expected to find session %s", w.ID())
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Expected missing session to be absent")
	}

	other := s.Create()
	if other.ID() == w.ID() {
		t.Error("Expected unique session ids")
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", s.Len())
	}

	s.Delete(w.ID())
	if s.Len() != 1 {
		t.Errorf("Expected 1 session after delete, got %d", s.Len())
	}
}

func TestPrune(t *testing.T) {
	s := New(nopClassifier{})
	s.Create()
	s.Create()

	if n := s.Prune(time.Hour, time.Now()); n != 0 {
		t.Errorf("Expected no sessions pruned, got %d", n)
	}
	if n := s.Prune(time.Hour, time.Now().Add(2*time.Hour)); n != 2 {
		t.Errorf("Expected 2 sessions pruned, got %d", n)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d", s.Len())
	}
}
