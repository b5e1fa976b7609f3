package widget

import (
	"fmt"
	"regexp"
	"strconv"
)

// Rect is a screen rectangle given by its top-left and bottom-right corners.
type Rect struct {
	X1, Y1, X2, Y2 int
}

var boundsRe = regexp.MustCompile(`^\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]$`)

// ParseRect parses a "[x1,y1][x2,y2]" bounds string.
func ParseRect(bounds string) (Rect, error) {
	m := boundsRe.FindStringSubmatch(bounds)
	if len(m) != 5 {
		return Rect{}, fmt.Errorf("invalid bounds format: %s", bounds)
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Rect{}, fmt.Errorf("invalid bounds format: %s", bounds)
		}
		v[i] = n
	}
	return Rect{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// Center returns the center point of r.
func (r Rect) Center() (int, int) {
	return r.X1 + (r.X2-r.X1)/2, r.Y1 + (r.Y2-r.Y1)/2
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// Area returns the area of r.
func (r Rect) Area() int {
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.X1, r.Y1, r.X2, r.Y2)
}

// BoundsOf returns the bounds of w and whether it has any.
func BoundsOf(w Widget) (Rect, bool) {
	b, ok := w.(Bounded)
	if !ok {
		return Rect{}, false
	}
	r := b.Bounds()
	return r, !r.Empty()
}
