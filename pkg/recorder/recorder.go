// Package recorder turns live input events into replayable steps, each
// naming its target with an inferred locator.
package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"Lookout/pkg/hierarchy"
	"Lookout/pkg/keygen"
	"Lookout/pkg/locator"
	"Lookout/pkg/widget"
)

var (
	ErrRecording    = errors.New("recorder is already running")
	ErrNotRecording = errors.New("recorder is not running")
)

// Step is one recorded user action.
type Step struct {
	ID      string           `json:"id" yaml:"id"`
	Action  widget.EventType `json:"action" yaml:"action"`
	Key     string           `json:"key" yaml:"key"`
	Locator *locator.Locator `json:"locator" yaml:"locator"`
	Text    string           `json:"text,omitempty" yaml:"text,omitempty"`
	X       int              `json:"x,omitempty" yaml:"x,omitempty"`
	Y       int              `json:"y,omitempty" yaml:"y,omitempty"`
	Time    time.Time        `json:"time" yaml:"time"`
}

// Session describes one recording run.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	Status    string `json:"status"`
	StepCount int    `json:"stepCount"`
}

// Syncer is implemented by event sources that can flush pending deliveries.
type Syncer interface {
	Sync(ctx context.Context) error
}

type Option func(*Recorder)

// WithStore persists every session to s when it stops.
func WithStore(s *Store) Option {
	return func(r *Recorder) { r.store = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) { r.log = l.With().Str("module", "recorder").Logger() }
}

// WithHoverRate limits recorded hover steps. The default is 4 per second.
func WithHoverRate(limit rate.Limit, burst int) Option {
	return func(r *Recorder) { r.hover = rate.NewLimiter(limit, burst) }
}

// Recorder records events whose targets are visible through its hierarchy.
// Typically h is a session hierarchy, so windows that existed before the
// recording or were disposed since are left out.
type Recorder struct {
	h     hierarchy.Hierarchy
	kinds *widget.Registry
	store *Store
	hover *rate.Limiter
	log   zerolog.Logger

	mu         sync.Mutex
	keys       *keygen.Generator
	keyOf      map[widget.ID]string
	steps      []Step
	lastTarget widget.Widget
	session    Session
	src        widget.EventSource
	cancel     func()
}

func New(h hierarchy.Hierarchy, kinds *widget.Registry, opts ...Option) *Recorder {
	if kinds == nil {
		kinds = widget.DefaultRegistry()
	}
	r := &Recorder{
		h:     h,
		kinds: kinds,
		hover: rate.NewLimiter(rate.Limit(4), 1),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a new session named name on src.
func (r *Recorder) Start(src widget.EventSource, name string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return Session{}, ErrRecording
	}
	r.session = Session{
		ID:        uuid.New().String(),
		Name:      name,
		StartTime: time.Now().UnixMilli(),
		Status:    "recording",
	}
	r.keys = keygen.New()
	r.keyOf = make(map[widget.ID]string)
	r.steps = nil
	r.lastTarget = nil
	r.src = src
	r.cancel = src.Subscribe(r.handle)

	r.log.Info().Str("session", r.session.ID).Str("name", name).Msg("recording started")
	return r.session, nil
}

// Stop ends the session and returns its steps in order. Pending events of a
// source implementing Syncer are delivered first. With a store the session is
// persisted; a store error is returned together with the steps.
func (r *Recorder) Stop(ctx context.Context) ([]Step, error) {
	r.mu.Lock()
	src, cancel := r.src, r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return nil, ErrNotRecording
	}
	if s, ok := src.(Syncer); ok {
		if err := s.Sync(ctx); err != nil {
			r.log.Warn().Err(err).Msg("event source sync failed")
		}
	}
	cancel()

	r.mu.Lock()
	r.cancel = nil
	r.src = nil
	r.session.EndTime = time.Now().UnixMilli()
	r.session.Status = "completed"
	r.session.StepCount = len(r.steps)
	session := r.session
	steps := append([]Step(nil), r.steps...)
	r.mu.Unlock()

	r.log.Info().Str("session", session.ID).Int("steps", len(steps)).Msg("recording stopped")

	if r.store == nil {
		return steps, nil
	}
	if err := r.store.CreateSession(&session); err != nil {
		return steps, err
	}
	return steps, r.store.SaveSteps(session.ID, steps)
}

// Steps returns a copy of the steps recorded so far.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...)
}

// Session returns the current or last session.
func (r *Recorder) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session
	s.StepCount = len(r.steps)
	return s
}

// Recording reports whether a session is running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Recorder) handle(ev widget.Event) {
	switch ev.Type {
	case widget.EventWindowOpened, widget.EventWindowClosed:
		return
	}
	if ev.Target == nil || !r.h.Contains(ev.Target) {
		r.log.Debug().Str("event", string(ev.Type)).Msg("event target not in hierarchy, dropped")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}

	if ev.Type == widget.EventTyping && len(r.steps) > 0 {
		last := &r.steps[len(r.steps)-1]
		if last.Action == widget.EventTyping && widget.Same(r.lastTarget, ev.Target) {
			last.Text += ev.Text
			last.Time = ev.Time
			return
		}
	}
	if ev.Type == widget.EventHover && !r.hover.AllowN(ev.Time, 1) {
		return
	}

	loc, err := locator.Infer(r.h, r.kinds, ev.Target)
	if err != nil {
		r.log.Warn().Err(err).Str("target", widget.Describe(ev.Target)).Msg("locator inference failed")
		return
	}
	key, err := r.keyFor(ev.Target)
	if err != nil {
		r.log.Warn().Err(err).Str("target", widget.Describe(ev.Target)).Msg("key generation failed")
		return
	}

	r.steps = append(r.steps, Step{
		ID:      uuid.New().String(),
		Action:  ev.Type,
		Key:     key,
		Locator: loc,
		Text:    ev.Text,
		X:       ev.X,
		Y:       ev.Y,
		Time:    ev.Time,
	})
	r.lastTarget = ev.Target
	r.log.Debug().Str("action", string(ev.Type)).Str("key", key).Str("locator", loc.String()).Msg("step recorded")
}

// keyFor returns the same key every time a widget is seen in one session.
func (r *Recorder) keyFor(w widget.Widget) (string, error) {
	if k, ok := r.keyOf[w.ID()]; ok {
		return k, nil
	}
	k, err := r.keys.ForWidget(w)
	if err != nil {
		return "", err
	}
	r.keyOf[w.ID()] = k
	return k, nil
}
