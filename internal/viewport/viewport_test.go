package viewport

import (
	"math"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/venue"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	idx, err := venue.Load(venue.Sample())
	if err != nil {
		t.Fatal(err)
	}
	return New(idx, Options{})
}

func TestWheelClampsScale(t *testing.T) {
	c := newController(t)
	if got := c.Wheel(-100).Scale; math.Abs(got-1.1) > 1e-12 {
		t.Fatalf("scale after wheel(-100) = %v, want 1.1", got)
	}
	if got := c.Wheel(100).Scale; math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("scale after wheel(100) = %v, want 1.0", got)
	}
	if got := c.Wheel(10000).Scale; got != 0.5 {
		t.Fatalf("scale = %v, want clamp to 0.5", got)
	}
	if got := c.Wheel(-1e6).Scale; got != 3.0 {
		t.Fatalf("scale = %v, want clamp to 3.0", got)
	}
	if got := c.Wheel(math.NaN()).Scale; got != 3.0 {
		t.Fatalf("NaN wheel changed scale to %v", got)
	}
}

func TestDragPans(t *testing.T) {
	c := newController(t)
	c.Set(Transform{Scale: 1.5, TranslateX: 10, TranslateY: 20})

	c.PointerDown(100, 100)
	c.PointerMove(150, 130)
	if tr := c.Transform(); tr.TranslateX != 60 || tr.TranslateY != 50 || tr.Scale != 1.5 {
		t.Fatalf("transform after drag = %+v", tr)
	}
	c.PointerUp()
	c.PointerMove(0, 0)
	if tr := c.Transform(); tr.TranslateX != 60 || tr.TranslateY != 50 {
		t.Fatalf("moved after pointer up: %+v", tr)
	}
	if c.Dragging() {
		t.Fatal("still dragging")
	}
}

func TestHitTestInvertsTransform(t *testing.T) {
	c := newController(t)
	c.Set(Transform{Scale: 2, TranslateX: -100, TranslateY: 50})

	// P-A3 sits at (360, 120) in layout space.
	screen := c.Apply(model.Point{X: 360, Y: 120})
	if screen != (model.Point{X: 620, Y: 290}) {
		t.Fatalf("apply = %+v", screen)
	}
	if h := c.HitTest(screen); h.SeatID != "P-A3" || h.SectionID != "premium" {
		t.Fatalf("hit = %+v, want P-A3 in premium", h)
	}

	tests := []struct {
		name   string
		layout model.Point
		want   Hit
	}{
		{"section between seats", model.Point{X: 400, Y: 190}, Hit{SectionID: "premium"}},
		{"empty floor", model.Point{X: 10, Y: 10}, Hit{}},
		{"balcony seat edge", model.Point{X: 158, Y: 450}, Hit{SeatID: "B-A1", SectionID: "balcony"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.HitTest(c.Apply(tt.layout)); got != tt.want {
				t.Fatalf("hit = %+v, want %+v", got, tt.want)
			}
			if got := c.HitTestLayout(tt.layout); got != tt.want {
				t.Fatalf("layout hit = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPointerMoveReportsHit(t *testing.T) {
	c := newController(t)
	if h := c.PointerMove(360, 120); h.SeatID != "P-A3" {
		t.Fatalf("hover = %+v", h)
	}
}

func TestResetRestoresIdentity(t *testing.T) {
	c := newController(t)
	c.Wheel(-500)
	c.PointerDown(0, 0)
	c.PointerMove(40, 40)
	if got := c.Reset(); got != Identity || c.Dragging() {
		t.Fatalf("reset = %+v dragging=%v", got, c.Dragging())
	}
}

// arbitrary maps quick's raw values onto the canvas and the legal
// transform range.
func arbitrary(px, py, s uint16, tx, ty int16) (model.Point, Transform) {
	p := model.Point{X: float64(px) / math.MaxUint16 * 800, Y: float64(py) / math.MaxUint16 * 600}
	t := Transform{
		Scale:      0.5 + float64(s)/math.MaxUint16*2.5,
		TranslateX: float64(tx) / 20,
		TranslateY: float64(ty) / 20,
	}
	return p, t
}

func TestHitTestRoundTrip(t *testing.T) {
	c := newController(t)
	prop := func(px, py, s uint16, tx, ty int16) bool {
		p, tr := arbitrary(px, py, s, tx, ty)
		return c.HitTestLayout(Inverse(tr, Apply(tr, p))) == c.HitTestLayout(p)
	}
	cfg := &quick.Config{MaxCount: 5000, Rand: rand.New(rand.NewSource(42))}
	if err := quick.Check(prop, cfg); err != nil {
		t.Fatal(err)
	}
}

func TestControllerRoundTrip(t *testing.T) {
	c := newController(t)
	prop := func(px, py, s uint16, tx, ty int16) bool {
		p, tr := arbitrary(px, py, s, tx, ty)
		c.Set(tr)
		back := c.Inverse(c.Apply(p))
		return math.Abs(back.X-p.X) < 1e-9 && math.Abs(back.Y-p.Y) < 1e-9
	}
	cfg := &quick.Config{MaxCount: 2000, Rand: rand.New(rand.NewSource(7))}
	if err := quick.Check(prop, cfg); err != nil {
		t.Fatal(err)
	}
}
