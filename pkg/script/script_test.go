package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Lookout/pkg/finder"
	"Lookout/pkg/hierarchy"
	"Lookout/pkg/locator"
	"Lookout/pkg/memtk"
	"Lookout/pkg/recorder"
	"Lookout/pkg/widget"
)

func loginSteps() []recorder.Step {
	frame := locator.Must(locator.New(widget.KindFrame, "Login"))
	return []recorder.Step{
		{
			ID:      "s1",
			Action:  widget.EventTyping,
			Key:     "textfield",
			Locator: locator.Must(locator.LabeledText(widget.KindTextField, "User:", locator.WithParent(frame))),
			Text:    "alice",
		},
		{
			ID:      "s2",
			Action:  widget.EventClick,
			Key:     "ok.button",
			Locator: locator.Must(locator.New(widget.KindButton, "ok", locator.WithParent(frame))),
		},
	}
}

func TestSaveLoadList(t *testing.T) {
	dir := t.TempDir()

	s := FromSteps("Login flow", loginSteps())
	path, err := Save(dir, s)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "Login_flow.yaml" {
		t.Errorf("unexpected file name %s", path)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if back.Name != "Login flow" || len(back.Steps) != 2 {
		t.Fatalf("unexpected script %+v", back)
	}
	for i := range s.Steps {
		if !back.Steps[i].Locator.Equal(s.Steps[i].Locator) {
			t.Errorf("step %d locator: got %s, want %s", i, back.Steps[i].Locator, s.Steps[i].Locator)
		}
	}
	if back.Steps[0].Text != "alice" {
		t.Errorf("step text lost: %q", back.Steps[0].Text)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("steps: [: nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	infos, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "Login flow" || infos[0].Steps != 2 {
		t.Errorf("unexpected listing %+v", infos)
	}

	if infos, err := List(filepath.Join(dir, "missing")); err != nil || infos != nil {
		t.Errorf("missing directory: %v %v", infos, err)
	}
}

func TestLoadHandWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manual.yaml")
	content := `steps:
  - action: click
    key: ok.button
    locator:
      class: Button
      name: ok
      index: 0
      parent:
        class: Frame
        name: F
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Name != "manual" {
		t.Errorf("name should default to the file name, got %q", s.Name)
	}
	want := `Button "ok" [0] in Frame "F"`
	if got := s.Steps[0].Locator.String(); got != want {
		t.Errorf("locator: got %s, want %s", got, want)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("steps:\n  - action: click\n"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("a step without a locator should fail to load")
	}
}

func TestReplay(t *testing.T) {
	tk := memtk.New()
	defer tk.Close()
	f := tk.NewFrame("Login")
	label := tk.NewWidget(widget.KindLabel, "", "User:")
	user := tk.NewWidget(widget.KindTextField, "", "")
	ok := tk.NewWidget(widget.KindButton, "ok", "OK")
	tk.Add(f, label, user, ok)

	fd := finder.New(hierarchy.NewBase(tk), tk.Kinds())
	s := FromSteps("login", loginSteps())

	ws, err := Replay(context.Background(), fd, s)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(ws) != 2 || !widget.Same(ws[0], user) || !widget.Same(ws[1], ok) {
		t.Errorf("unexpected widgets %v", ws)
	}

	tk.SetName(ok, "submit")
	ws, err = Replay(context.Background(), fd, s)
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if se.Index != 1 || !errors.Is(err, finder.ErrNotFound) {
		t.Errorf("unexpected failure %v", err)
	}
	if len(ws) != 1 {
		t.Errorf("steps before the failure should be returned, got %d", len(ws))
	}

	if _, err := Replay(context.Background(), fd, &Script{}); err != ErrNoSteps {
		t.Errorf("expected ErrNoSteps, got %v", err)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	changes := make(chan string, 8)
	w := NewWatcher(dir, func(action, name string) {
		changes <- action + ":" + name
	}, WithDebounce(20*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if _, err := Save(dir, FromSteps("watched", loginSteps())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case got := <-changes:
		if got != "create:watched" && got != "save:watched" {
			t.Errorf("unexpected change %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
