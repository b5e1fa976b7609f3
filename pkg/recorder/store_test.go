package recorder

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"Lookout/pkg/locator"
	"Lookout/pkg/widget"
)

// setupTestStore creates a temporary Store for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "recorder_store_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	store, err := NewStore(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create Store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
	return store, cleanup
}

func TestStoreCreation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if _, err := os.Stat(store.Path()); os.IsNotExist(err) {
		t.Fatalf("Database file should exist at %s", store.Path())
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now().UnixMilli()
	older := &Session{ID: uuid.New().String(), Name: "older", StartTime: now - 1000, Status: "completed"}
	newer := &Session{ID: uuid.New().String(), Name: "newer", StartTime: now, Status: "completed", StepCount: 2}
	for _, s := range []*Session{older, newer} {
		if err := store.CreateSession(s); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	got, err := store.GetSession(newer.ID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got == nil || got.Name != "newer" || got.StepCount != 2 {
		t.Errorf("unexpected session: %+v", got)
	}

	missing, err := store.GetSession("nope")
	if err != nil || missing != nil {
		t.Errorf("unknown session: got %+v, %v", missing, err)
	}

	list, err := store.ListSessions(0)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Errorf("sessions should be newest first, got %+v", list)
	}
	if list, _ := store.ListSessions(1); len(list) != 1 {
		t.Errorf("limit not applied, got %d", len(list))
	}

	if err := store.DeleteSession(older.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if list, _ := store.ListSessions(0); len(list) != 1 {
		t.Errorf("expected 1 session after delete, got %d", len(list))
	}
}

func TestStepsRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	session := &Session{ID: uuid.New().String(), Name: "steps", StartTime: time.Now().UnixMilli()}
	if err := store.CreateSession(session); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	frame := locator.Must(locator.New(widget.KindFrame, "Main"))
	ok := locator.Must(locator.New(widget.KindButton, "ok", locator.WithParent(frame)))
	user := locator.Must(locator.LabeledText(widget.KindTextField, "User:", locator.WithParent(frame)))
	at := time.UnixMilli(time.Now().UnixMilli())

	steps := []Step{
		{ID: uuid.New().String(), Action: widget.EventTyping, Key: "textfield", Locator: user, Text: "alice", Time: at},
		{ID: uuid.New().String(), Action: widget.EventClick, Key: "ok.button", Locator: ok, X: 5, Y: 6, Time: at},
	}
	if err := store.SaveSteps(session.ID, steps); err != nil {
		t.Fatalf("Failed to save steps: %v", err)
	}

	loaded, err := store.LoadSteps(session.ID)
	if err != nil {
		t.Fatalf("Failed to load steps: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(loaded))
	}
	for i := range steps {
		want, got := steps[i], loaded[i]
		if got.ID != want.ID || got.Action != want.Action || got.Key != want.Key || got.Text != want.Text {
			t.Errorf("step %d: got %+v, want %+v", i, got, want)
		}
		if !got.Locator.Equal(want.Locator) {
			t.Errorf("step %d locator: got %s, want %s", i, got.Locator, want.Locator)
		}
		if !got.Time.Equal(want.Time) {
			t.Errorf("step %d time: got %v, want %v", i, got.Time, want.Time)
		}
	}
	if loaded[1].X != 5 || loaded[1].Y != 6 {
		t.Errorf("coordinates lost: %+v", loaded[1])
	}

	if err := store.DeleteSession(session.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if rest, _ := store.LoadSteps(session.ID); len(rest) != 0 {
		t.Errorf("steps should cascade with their session, got %d", len(rest))
	}
}
