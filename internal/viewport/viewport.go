// Package viewport keeps the zoom and pan transform of a venue map and
// resolves pointer positions to the seat or section beneath them.
//
// Screen coordinates relate to layout coordinates by
//
//	screen = layout × Scale + Translate
//
// and hit testing always maps the pointer back through the inverse before
// comparing against layout geometry.
package viewport

import (
	"math"
	"sync"

	"github.com/iliyamo/venue-seating/internal/model"
)

// Transform is the rendering transform handed to the host UI.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity is the unzoomed, unpanned transform.
var Identity = Transform{Scale: 1}

// Hit names what lies under the pointer.  Empty ids mean nothing was hit.
type Hit struct {
	SeatID    string `json:"seat_id,omitempty"`
	SectionID string `json:"section_id,omitempty"`
}

// Options tunes a Controller.  Zero fields take the defaults.
type Options struct {
	MinScale         float64 // default 0.5
	MaxScale         float64 // default 3.0
	WheelSensitivity float64 // scale change per unit of wheel delta, default 0.001
	SeatRadius       float64 // hit radius around a seat centre in layout units, default 8
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{MinScale: 0.5, MaxScale: 3.0, WheelSensitivity: 0.001, SeatRadius: 8}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = d.MaxScale
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = o.MinScale
	}
	if o.WheelSensitivity == 0 {
		o.WheelSensitivity = d.WheelSensitivity
	}
	if o.SeatRadius <= 0 {
		o.SeatRadius = d.SeatRadius
	}
	return o
}

// Layout is the geometry a Controller hit-tests against.  *venue.Index
// satisfies it.
type Layout interface {
	SeatAt(p model.Point, radius float64) (model.Seat, bool)
	SectionAt(p model.Point) (model.Section, bool)
}

// Controller turns wheel and pointer input into a Transform.  It is safe
// for concurrent use.
type Controller struct {
	layout Layout
	opts   Options

	mu       sync.Mutex
	t        Transform
	dragging bool
	anchor   model.Point
}

// New returns a Controller at the identity transform.
func New(layout Layout, opts Options) *Controller {
	return &Controller{layout: layout, opts: opts.withDefaults(), t: Identity}
}

// Options returns the effective options.
func (c *Controller) Options() Options { return c.opts }

// Transform returns the current transform.
func (c *Controller) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Wheel zooms by −sensitivity × deltaY, clamped to the scale limits.
func (c *Controller) Wheel(deltaY float64) Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return c.t
	}
	c.t.Scale = c.clamp(c.t.Scale - c.opts.WheelSensitivity*deltaY)
	return c.t
}

// PointerDown starts a drag at screen position (x, y).
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = true
	c.anchor = model.Point{X: x - c.t.TranslateX, Y: y - c.t.TranslateY}
}

// PointerMove pans while a drag is active and reports what is now under
// the pointer.
func (c *Controller) PointerMove(x, y float64) Hit {
	c.mu.Lock()
	if c.dragging {
		c.t.TranslateX = x - c.anchor.X
		c.t.TranslateY = y - c.anchor.Y
	}
	t := c.t
	c.mu.Unlock()
	return c.hit(t, model.Point{X: x, Y: y})
}

// PointerUp ends a drag.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	c.dragging = false
	c.mu.Unlock()
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Reset returns to the identity transform and drops any drag.
func (c *Controller) Reset() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = Identity
	c.dragging = false
	return c.t
}

// Set replaces the transform, clamping the scale.
func (c *Controller) Set(t Transform) Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	t.Scale = c.clamp(t.Scale)
	c.t = t
	return c.t
}

// Apply maps a layout point to the screen.
func (c *Controller) Apply(p model.Point) model.Point {
	return Apply(c.Transform(), p)
}

// Inverse maps a screen point back to layout space.
func (c *Controller) Inverse(p model.Point) model.Point {
	return Inverse(c.Transform(), p)
}

// HitTest reports the seat and section under a screen position.
func (c *Controller) HitTest(screen model.Point) Hit {
	return c.hit(c.Transform(), screen)
}

// HitTestLayout reports the seat and section at a layout position.
func (c *Controller) HitTestLayout(p model.Point) Hit {
	return c.hit(Identity, p)
}

func (c *Controller) hit(t Transform, screen model.Point) Hit {
	p := Inverse(t, screen)
	var h Hit
	if seat, ok := c.layout.SeatAt(p, c.opts.SeatRadius); ok {
		h.SeatID = seat.ID
		h.SectionID = seat.SectionID
		return h
	}
	if sec, ok := c.layout.SectionAt(p); ok {
		h.SectionID = sec.ID
	}
	return h
}

func (c *Controller) clamp(s float64) float64 {
	if math.IsNaN(s) {
		return c.opts.MinScale
	}
	return math.Min(c.opts.MaxScale, math.Max(c.opts.MinScale, s))
}

// Apply maps a layout point to the screen under t.
func Apply(t Transform, p model.Point) model.Point {
	return model.Point{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// Inverse maps a screen point to layout space under t.  t.Scale must be
// non-zero.
func Inverse(t Transform, p model.Point) model.Point {
	return model.Point{X: (p.X - t.TranslateX) / t.Scale, Y: (p.Y - t.TranslateY) / t.Scale}
}
