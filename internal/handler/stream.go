package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
	"github.com/iliyamo/venue-seating/internal/viewport"
)

const writeWait = 10 * time.Second

// StreamHandler drives the venue map over a websocket.  The host UI sends
// raw pointer and wheel input; the handler answers with the map transform,
// the seat under the pointer and fresh quotes, and pushes evictions as they
// happen.
type StreamHandler struct {
	Sessions *selection.Manager
	Pricer   *Pricer
	Settings *settings.Store
	Viewport viewport.Options
	upgrader websocket.Upgrader
}

// NewStreamHandler constructs a StreamHandler.  It panics if a dependency is nil.
func NewStreamHandler(sessions *selection.Manager, pricer *Pricer, st *settings.Store, opts viewport.Options) *StreamHandler {
	if sessions == nil || pricer == nil || st == nil {
		panic("nil dependency passed to NewStreamHandler")
	}
	return &StreamHandler{
		Sessions: sessions,
		Pricer:   pricer,
		Settings: st,
		Viewport: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// inbound is a message from the host UI.
type inbound struct {
	Type   string  `json:"type"` // wheel, pointerdown, pointermove, pointerup, reset, select, deselect
	DeltaY float64 `json:"delta_y,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	SeatID string  `json:"seat_id,omitempty"`
}

// outbound is a message to the host UI.  Type names the one populated field.
type outbound struct {
	Type      string              `json:"type"` // transform, hit, quote, evicted, error
	Transform *viewport.Transform `json:"transform,omitempty"`
	Hit       *viewport.Hit       `json:"hit,omitempty"`
	Quote     *sessionView        `json:"quote,omitempty"`
	Evicted   *selection.Eviction `json:"evicted,omitempty"`
	Error     string              `json:"error,omitempty"`
	Code      string              `json:"code,omitempty"`
}

// Stream handles GET /v1/sessions/:sid/ws.
func (h *StreamHandler) Stream(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return writeError(c, err)
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("stream: upgrade for %s: %v", s.ID(), err)
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	evictions, unsubscribe := h.Sessions.Subscribe(s.ID())
	defer unsubscribe()

	out := make(chan outbound, 32)
	done := make(chan struct{})
	go h.writeLoop(ctx, conn, out, evictions, s, done)

	vp := viewport.New(s.Index(), h.Viewport)
	t := vp.Transform()
	send(ctx, out, done, outbound{Type: "transform", Transform: &t})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("stream: read from %s: %v", s.ID(), err)
			}
			break
		}
		for _, reply := range h.handle(ctx, vp, s, msg) {
			send(ctx, out, done, reply)
		}
	}
	cancel()
	<-done
	return nil
}

// handle applies one inbound message and returns the replies.
func (h *StreamHandler) handle(ctx context.Context, vp *viewport.Controller, s *selection.Session, msg inbound) []outbound {
	switch msg.Type {
	case "wheel":
		t := vp.Wheel(msg.DeltaY)
		return []outbound{{Type: "transform", Transform: &t}}
	case "pointerdown":
		vp.PointerDown(msg.X, msg.Y)
		return nil
	case "pointermove":
		hit := vp.PointerMove(msg.X, msg.Y)
		replies := []outbound{{Type: "hit", Hit: &hit}}
		if vp.Dragging() {
			t := vp.Transform()
			replies = append(replies, outbound{Type: "transform", Transform: &t})
		}
		return replies
	case "pointerup":
		vp.PointerUp()
		return nil
	case "reset":
		t := vp.Reset()
		return []outbound{{Type: "transform", Transform: &t}}
	case "select", "deselect":
		seatID := msg.SeatID
		if seatID == "" {
			seatID = vp.HitTest(model.Point{X: msg.X, Y: msg.Y}).SeatID
		}
		if seatID == "" {
			return []outbound{{Type: "error", Code: "seat_not_found", Error: "no seat at pointer"}}
		}
		var err error
		if msg.Type == "select" {
			err = s.Select(ctx, seatID)
		} else {
			err = s.Deselect(ctx, seatID)
		}
		if err != nil {
			return []outbound{errorMessage(err)}
		}
		return []outbound{h.quote(ctx, s)}
	default:
		return []outbound{{Type: "error", Code: "unknown_message", Error: "unknown message type " + msg.Type}}
	}
}

func (h *StreamHandler) quote(ctx context.Context, s *selection.Session) outbound {
	view, err := h.Pricer.quoteSession(ctx, s, h.Settings.Snapshot())
	if err != nil {
		return errorMessage(err)
	}
	return outbound{Type: "quote", Quote: &view}
}

// writeLoop is the only writer on conn.  A failed write closes conn so the
// read loop ends too.
func (h *StreamHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan outbound, evictions <-chan selection.Eviction, s *selection.Session, done chan<- struct{}) {
	defer close(done)
	write := func(m outbound) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			log.Printf("stream: write to %s: %v", s.ID(), err)
			conn.Close()
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case m := <-out:
			if !write(m) {
				return
			}
		case ev, ok := <-evictions:
			if !ok {
				evictions = nil
				continue
			}
			if !write(outbound{Type: "evicted", Evicted: &ev}) || !write(h.quote(ctx, s)) {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- outbound, done <-chan struct{}, m outbound) {
	select {
	case out <- m:
	case <-ctx.Done():
	case <-done:
	}
}

func errorMessage(err error) outbound {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return outbound{Type: "error", Code: m.code, Error: err.Error()}
		}
	}
	log.Printf("stream: %v", err)
	return outbound{Type: "error", Code: "internal", Error: "internal error"}
}
