package handlers

import (
	"errors"
	"sync"
	"testing"
	"time"

	"event-gallery/internal/models"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []interface{}
	err      error
	deadline time.Time
}

func (w *recordingWriter) SetWriteDeadline(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deadline = t
	return nil
}

func (w *recordingWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, v)
	return nil
}

func (w *recordingWriter) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func TestHub_BroadcastReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	a, b := &recordingWriter{}, &recordingWriter{}
	hub.Register("a", a)
	hub.Register("b", b)

	hub.GalleryUpdated(3)

	for name, w := range map[string]*recordingWriter{"a": a, "b": b} {
		if w.len() != 1 {
			t.Fatalf("%s: expected 1 message, got %d", name, w.len())
		}
		event, ok := w.messages[0].(models.GalleryEvent)
		if !ok || event.Event != "gallery_updated" || event.Count != 3 {
			t.Errorf("%s: unexpected message %#v", name, w.messages[0])
		}
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	w := &recordingWriter{}
	hub.Register("a", w)
	if hub.Count() != 1 {
		t.Fatalf("expected 1 connection, got %d", hub.Count())
	}

	hub.Unregister("a")
	hub.Broadcast("ping")

	if hub.Count() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.Count())
	}
	if w.len() != 0 {
		t.Errorf("expected no messages after unregister, got %d", w.len())
	}
}

func TestHub_FailedWriteDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	broken := &recordingWriter{err: errors.New("closed")}
	healthy := &recordingWriter{}
	hub.Register("broken", broken)
	hub.Register("healthy", healthy)

	hub.Broadcast("ping")
	hub.Send("healthy", "direct")
	hub.Send("missing", "dropped")

	if healthy.len() != 2 {
		t.Errorf("expected 2 messages, got %d", healthy.len())
	}
}

func TestHub_ConcurrentBroadcast(t *testing.T) {
	hub := NewHub()
	w := &recordingWriter{}
	hub.Register("a", w)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.GalleryUpdated(n)
		}(i)
	}
	wg.Wait()

	if w.len() != 20 {
		t.Errorf("expected 20 messages, got %d", w.len())
	}
}

// stalledWriter blocks every write until release is closed, like a client
// that stopped reading.
type stalledWriter struct {
	writing  chan struct{}
	release  chan struct{}
	deadline time.Time
}

func (w *stalledWriter) SetWriteDeadline(t time.Time) error {
	w.deadline = t
	return nil
}

func (w *stalledWriter) WriteJSON(interface{}) error {
	close(w.writing)
	<-w.release
	return nil
}

func TestHub_StalledClientDoesNotBlockRegistry(t *testing.T) {
	hub := NewHub()
	stalled := &stalledWriter{writing: make(chan struct{}), release: make(chan struct{})}
	hub.Register("stalled", stalled)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.GalleryUpdated(1)
	}()
	<-stalled.writing

	registered := make(chan struct{})
	go func() {
		defer close(registered)
		hub.Register("late", &recordingWriter{})
		hub.Unregister("late")
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("Register blocked behind a stalled write")
	}

	close(stalled.release)
	<-done

	if stalled.deadline.IsZero() {
		t.Error("expected a write deadline to be set")
	}
}

func TestHub_SetsWriteDeadline(t *testing.T) {
	hub := NewHub()
	w := &recordingWriter{}
	hub.Register("a", w)

	before := time.Now()
	hub.Send("a", "ping")

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.deadline.After(before) {
		t.Errorf("expected a deadline after %v, got %v", before, w.deadline)
	}
}
