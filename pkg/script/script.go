// Package script stores recorded steps as human-editable YAML files and
// replays their locators against a live hierarchy.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"Lookout/pkg/finder"
	"Lookout/pkg/recorder"
	"Lookout/pkg/widget"
)

// Ext is the file extension of script files.
const Ext = ".yaml"

var ErrNoSteps = errors.New("script has no steps")

// Script is a named, ordered list of recorded steps.
type Script struct {
	Name    string          `yaml:"name"`
	Created time.Time       `yaml:"created"`
	Steps   []recorder.Step `yaml:"steps"`
}

// Info summarizes a script file.
type Info struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Steps    int       `json:"steps"`
	Modified time.Time `json:"modified"`
}

// FromSteps wraps recorded steps into a script.
func FromSteps(name string, steps []recorder.Step) *Script {
	return &Script{
		Name:    name,
		Created: time.Now().Truncate(time.Second),
		Steps:   append([]recorder.Step(nil), steps...),
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the file name a script with the given name is saved under.
func FileName(name string) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_.")
	if base == "" {
		base = "script"
	}
	return base + Ext
}

// Save writes s into dir and returns the file path.
func Save(dir string, s *Script) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode script %q: %w", s.Name, err)
	}
	path := filepath.Join(dir, FileName(s.Name))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// Load reads a script file. Every step locator is rebuilt on the way.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", filepath.Base(path), err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), Ext)
	}
	for i, st := range s.Steps {
		if st.Locator == nil {
			return nil, fmt.Errorf("script %s: step %d has no locator", s.Name, i)
		}
	}
	return &s, nil
}

// List returns the scripts in dir sorted by name. Unreadable files are skipped.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		s, err := Load(path)
		if err != nil {
			continue
		}
		info := Info{Name: s.Name, Path: path, Steps: len(s.Steps)}
		if fi, err := e.Info(); err == nil {
			info.Modified = fi.ModTime()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ========================================
// Replay
// ========================================

// StepError reports the step whose locator failed to resolve. Err is a
// finder.NotFoundError or finder.MultipleFoundError.
type StepError struct {
	Index int
	Step  recorder.Step
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s %s): %v", e.Index+1, e.Step.Action, e.Step.Key, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Replay resolves every step locator in order with f and returns the widgets
// they resolve to. It stops at the first step that cannot be resolved. No input
// is synthesized.
func Replay(ctx context.Context, f *finder.Finder, s *Script) ([]widget.Widget, error) {
	if len(s.Steps) == 0 {
		return nil, ErrNoSteps
	}
	ctx = finder.NewContext(ctx, f)
	out := make([]widget.Widget, 0, len(s.Steps))
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		w, err := st.Locator.Resolve(ctx)
		if err != nil {
			return out, &StepError{Index: i, Step: st, Err: err}
		}
		out = append(out, w)
	}
	return out, nil
}
