package finder

import (
	"errors"
	"fmt"
	"strings"

	"Lookout/pkg/hierarchy"
	"Lookout/pkg/widget"
)

var (
	// ErrNotFound matches every *NotFoundError with errors.Is.
	ErrNotFound = errors.New("component not found")
	// ErrMultipleFound matches every *MultipleFoundError with errors.Is.
	ErrMultipleFound = errors.New("multiple components found")
)

// NotFoundError reports that nothing in the searched hierarchy matched.
type NotFoundError struct {
	// Matcher is the description of the matcher that found nothing.
	Matcher string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no component found matching %s", e.Matcher)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Candidate is one of several widgets that matched.
type Candidate struct {
	Widget      widget.Widget
	Path        string
	Description string
}

// MultipleFoundError reports that more than one widget matched and the matcher
// could not choose between them.
type MultipleFoundError struct {
	Matcher    string
	Candidates []Candidate
}

// NewMultipleFoundError builds the error for candidates found in h.
func NewMultipleFoundError(h hierarchy.Hierarchy, matcher string, candidates []widget.Widget) *MultipleFoundError {
	e := &MultipleFoundError{Matcher: matcher, Candidates: make([]Candidate, 0, len(candidates))}
	for _, w := range candidates {
		e.Candidates = append(e.Candidates, Candidate{
			Widget:      w,
			Path:        hierarchy.Path(h, w),
			Description: widget.Describe(w),
		})
	}
	return e
}

// Widgets returns the matching widgets.
func (e *MultipleFoundError) Widgets() []widget.Widget {
	out := make([]widget.Widget, len(e.Candidates))
	for i, c := range e.Candidates {
		out[i] = c.Widget
	}
	return out
}

func (e *MultipleFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d components match %s:", len(e.Candidates), e.Matcher)
	for i, c := range e.Candidates {
		fmt.Fprintf(&b, "\n  %d. %s (%s)", i+1, c.Path, c.Description)
	}
	return b.String()
}

func (e *MultipleFoundError) Is(target error) bool {
	return target == ErrMultipleFound
}
