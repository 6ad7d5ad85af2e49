package router

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/config"
	"github.com/iliyamo/venue-seating/internal/handler"
	"github.com/iliyamo/venue-seating/internal/hold"
	"github.com/iliyamo/venue-seating/internal/middleware"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/pricing"
	"github.com/iliyamo/venue-seating/internal/resale"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
	"github.com/iliyamo/venue-seating/internal/venue"
	"github.com/iliyamo/venue-seating/internal/viewport"
)

const secret = "router-secret"

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

type fixture struct {
	e        *echo.Echo
	sessions *selection.Manager
	tickets  *resale.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	venues := venue.NewLoader(venue.StaticCatalog{venue.SampleID: venue.Sample()}, nopLogger{})
	auth := hold.NewMemory(clock.Real(), 5*time.Minute, 0)
	t.Cleanup(func() { auth.Close() })

	sessions := selection.NewManager(venues, selection.ManagerOptions{Auth: auth, Logger: nopLogger{}})
	alloc := &selection.Allocator{Venues: venues, Sessions: sessions}

	policy := pricing.DefaultPolicy()
	pricer := &handler.Pricer{
		Engine: pricing.New(policy, pricing.DefaultAddOns(policy), nopLogger{}),
		Base:   12800,
	}
	tickets := resale.NewMemoryStore(map[string]money.Amount{"T1": 10000})
	svc := &resale.Service{
		Engine:   resale.NewEngine(resale.DefaultPolicy()),
		Tickets:  tickets,
		Listings: tickets,
	}
	display, err := settings.NewStore("GBP", "en-GB")
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	venueH := handler.NewVenueHandler(venues, sessions, alloc)
	settingsH := handler.NewSettingsHandler(display)
	RegisterRoutes(e)
	RegisterPublic(e, venueH, handler.NewQuoteHandler(venues, pricer, display), settingsH,
		middleware.NewRedisCache(config.CacheConfig{}, nil))
	RegisterSessions(e,
		handler.NewSessionHandler(sessions, pricer, display),
		handler.NewStreamHandler(sessions, pricer, display, viewport.DefaultOptions()))
	RegisterOwner(e, venueH, settingsH, secret)
	RegisterResale(e, handler.NewListingHandler(svc), secret)
	return &fixture{e: e, sessions: sessions, tickets: tickets}
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1", "role": role, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + s
}

// do sends a request and decodes a JSON body into out when out is non-nil.
func (f *fixture) do(t *testing.T, method, path, auth string, body any, out any) int {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

type sessionBody struct {
	Session struct {
		ID      string   `json:"id"`
		SeatIDs []string `json:"seat_ids"`
		Version uint64   `json:"version"`
	} `json:"session"`
	Quote struct {
		Subtotal   int64             `json:"subtotal_pence"`
		ServiceFee int64             `json:"service_fee_pence"`
		AddOnTotal int64             `json:"addon_total_pence"`
		GrandTotal int64             `json:"grand_total_pence"`
		Display    map[string]string `json:"display"`
	} `json:"quote"`
	CanSelectMore bool `json:"can_select_more"`
	Seats         []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"seats"`
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Attempted int64  `json:"attempted_pence"`
	Cap       int64  `json:"cap_pence"`
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGetVenue(t *testing.T) {
	f := newFixture(t)
	var body struct {
		ID       string `json:"id"`
		Sections []struct {
			ID        string `json:"id"`
			Available int    `json:"available"`
		} `json:"sections"`
		Seats []json.RawMessage `json:"seats"`
	}
	if code := f.do(t, http.MethodGet, "/v1/venues/arena", "", nil, &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := map[string]int{"premium": 14, "stalls": 47, "balcony": 20}
	for _, s := range body.Sections {
		if s.Available != want[s.ID] {
			t.Errorf("section %s available = %d, want %d", s.ID, s.Available, want[s.ID])
		}
	}
	if len(body.Seats) != 84 {
		t.Errorf("seats = %d, want 84", len(body.Seats))
	}

	var e errorBody
	if code := f.do(t, http.MethodGet, "/v1/venues/nowhere", "", nil, &e); code != http.StatusNotFound || e.Code != "venue_not_found" {
		t.Fatalf("unknown venue = %d %+v", code, e)
	}
}

func TestSessionFlow(t *testing.T) {
	f := newFixture(t)

	var s sessionBody
	if code := f.do(t, http.MethodPost, "/v1/venues/arena/sessions", "", nil, &s); code != http.StatusCreated {
		t.Fatalf("open = %d", code)
	}
	sid := s.Session.ID
	base := "/v1/sessions/" + sid

	if code := f.do(t, http.MethodPost, base+"/seats", "", echo.Map{"seat_id": "P-B1"}, &s); code != http.StatusOK {
		t.Fatalf("select = %d", code)
	}
	if code := f.do(t, http.MethodPost, base+"/seats", "", echo.Map{"seat_id": "S-A1"}, &s); code != http.StatusOK {
		t.Fatalf("select = %d", code)
	}
	if s.Quote.Subtotal != 38400 || s.Quote.ServiceFee != 3840 || s.Quote.GrandTotal != 42240 {
		t.Fatalf("quote = %+v", s.Quote)
	}
	if !strings.Contains(s.Quote.Display["grand_total"], "422.40") {
		t.Errorf("display grand total = %q", s.Quote.Display["grand_total"])
	}

	conflicts := []struct {
		seat   string
		status int
		code   string
	}{
		{"P-A1", http.StatusConflict, "seat_unavailable"},
		{"P-A2", http.StatusConflict, "seat_unavailable"},
		{"P-B1", http.StatusConflict, "already_selected"},
		{"Z-99", http.StatusNotFound, "seat_not_found"},
	}
	for _, tc := range conflicts {
		var e errorBody
		if code := f.do(t, http.MethodPost, base+"/seats", "", echo.Map{"seat_id": tc.seat}, &e); code != tc.status || e.Code != tc.code {
			t.Errorf("select %s = %d %q, want %d %q", tc.seat, code, e.Code, tc.status, tc.code)
		}
	}
	if code := f.do(t, http.MethodPost, base+"/seats", "", echo.Map{}, nil); code != http.StatusBadRequest {
		t.Errorf("select without seat_id = %d", code)
	}

	// A second session cannot take a seat the first one holds.
	var other sessionBody
	f.do(t, http.MethodPost, "/v1/venues/arena/sessions", "", nil, &other)
	var e errorBody
	if code := f.do(t, http.MethodPost, "/v1/sessions/"+other.Session.ID+"/seats", "", echo.Map{"seat_id": "P-B1"}, &e); code != http.StatusConflict || e.Code != "seat_unavailable" {
		t.Fatalf("held seat = %d %+v", code, e)
	}

	lines := echo.Map{"lines": []echo.Map{{"addon_id": "shield", "quantity": 1}}}
	if code := f.do(t, http.MethodPut, base+"/addons", "", lines, &s); code != http.StatusOK {
		t.Fatalf("addons = %d", code)
	}
	if s.Quote.AddOnTotal != 2688 {
		t.Errorf("shield on 38400 = %d, want 2688", s.Quote.AddOnTotal)
	}
	bad := echo.Map{"lines": []echo.Map{{"addon_id": "merch-bundle", "quantity": 51}}}
	if code := f.do(t, http.MethodPut, base+"/addons", "", bad, &e); code != http.StatusBadRequest || e.Code != "invalid_quantity" {
		t.Errorf("over stock = %d %+v", code, e)
	}
	unknown := echo.Map{"lines": []echo.Map{{"addon_id": "lounge", "quantity": 1}}}
	if code := f.do(t, http.MethodPut, base+"/addons", "", unknown, &e); code != http.StatusBadRequest || e.Code != "unknown_addon" {
		t.Errorf("unknown add-on = %d %+v", code, e)
	}

	if code := f.do(t, http.MethodDelete, base+"/seats/P-B1", "", nil, &s); code != http.StatusOK {
		t.Fatalf("deselect = %d", code)
	}
	if len(s.Session.SeatIDs) != 1 || s.Session.SeatIDs[0] != "S-A1" {
		t.Fatalf("after deselect = %v", s.Session.SeatIDs)
	}
	// The released seat is free for the other session now.
	if code := f.do(t, http.MethodPost, "/v1/sessions/"+other.Session.ID+"/seats", "", echo.Map{"seat_id": "P-B1"}, nil); code != http.StatusOK {
		t.Fatalf("select released seat = %d", code)
	}

	if code := f.do(t, http.MethodGet, base+"?include=seats", "", nil, &s); code != http.StatusOK {
		t.Fatalf("get = %d", code)
	}
	status := map[string]string{}
	for _, seat := range s.Seats {
		status[seat.ID] = seat.Status
	}
	if status["S-A1"] != "selected" || status["P-A1"] != "taken" || status["S-A2"] != "available" {
		t.Errorf("seat view = S-A1:%s P-A1:%s S-A2:%s", status["S-A1"], status["P-A1"], status["S-A2"])
	}

	if code := f.do(t, http.MethodDelete, base+"/seats", "", nil, &s); code != http.StatusOK || len(s.Session.SeatIDs) != 0 {
		t.Fatalf("clear = %d %v", code, s.Session.SeatIDs)
	}
	if s.Quote.GrandTotal != 0 || s.Quote.AddOnTotal != 0 {
		t.Errorf("empty selection quote = %+v", s.Quote)
	}

	if code := f.do(t, http.MethodDelete, base, "", nil, nil); code != http.StatusNoContent {
		t.Fatalf("close = %d", code)
	}
	if code := f.do(t, http.MethodGet, base, "", nil, &e); code != http.StatusNotFound || e.Code != "session_not_found" {
		t.Fatalf("get closed = %d %+v", code, e)
	}
}

func TestCapacity(t *testing.T) {
	f := newFixture(t)
	var s sessionBody
	f.do(t, http.MethodPost, "/v1/venues/arena/sessions", "", nil, &s)
	base := "/v1/sessions/" + s.Session.ID
	for i := 1; i <= selection.MaxSeats; i++ {
		seat := "S-A" + strconv.Itoa(i)
		if code := f.do(t, http.MethodPost, base+"/seats", "", echo.Map{"seat_id": seat}, &s); code != http.StatusOK {
			t.Fatalf("select %s = %d", seat, code)
		}
	}
	if s.CanSelectMore {
		t.Fatal("CanSelectMore at capacity")
	}
	var e errorBody
	if code := f.do(t, http.MethodPost, base+"/seats", "", echo.Map{"seat_id": "S-B1"}, &e); code != http.StatusConflict || e.Code != "capacity_exceeded" {
		t.Fatalf("eleventh seat = %d %+v", code, e)
	}
}

func TestStatelessQuote(t *testing.T) {
	f := newFixture(t)
	var q struct {
		Subtotal        int64  `json:"subtotal_pence"`
		BundleDiscount  int64  `json:"bundle_discount_pence"`
		GrandTotal      int64  `json:"grand_total_pence"`
		SettingsVersion uint64 `json:"settings_version"`
	}
	body := echo.Map{
		"venue_id":         "arena",
		"seat_ids":         []string{"B-A1", "B-A2"},
		"addons":           []echo.Map{{"addon_id": "fast-track", "quantity": 1}, {"addon_id": "parking", "quantity": 1}},
		"base_price_pence": 10000,
	}
	if code := f.do(t, http.MethodPost, "/v1/quote", "", body, &q); code != http.StatusOK {
		t.Fatalf("quote = %d", code)
	}
	// 2 × 7500 = 15000, fee 1500, add-ons 4000 less 400.
	if q.Subtotal != 15000 || q.BundleDiscount != 400 || q.GrandTotal != 20100 || q.SettingsVersion != 1 {
		t.Fatalf("quote = %+v", q)
	}

	var e errorBody
	if code := f.do(t, http.MethodPost, "/v1/quote", "", echo.Map{"venue_id": "nowhere"}, &e); code != http.StatusNotFound {
		t.Errorf("unknown venue = %d", code)
	}
	if code := f.do(t, http.MethodPost, "/v1/quote", "", echo.Map{"venue_id": "arena", "base_price_pence": -1}, &e); code != http.StatusBadRequest || e.Code != "invalid_base_price" {
		t.Errorf("negative base = %d %+v", code, e)
	}
	if code := f.do(t, http.MethodPost, "/v1/quote", "", echo.Map{}, nil); code != http.StatusBadRequest {
		t.Errorf("missing venue = %d", code)
	}

	half := int64(math.MaxInt64/2 + 1)
	bad := []struct {
		name string
		body echo.Map
		code string
	}{
		{"lines summing past int64", echo.Map{"venue_id": "arena", "seat_ids": []string{"S-A1"},
			"addons": []echo.Map{{"addon_id": "fast-track", "quantity": half}, {"addon_id": "fast-track", "quantity": half}}}, "invalid_quantity"},
		{"huge quantity", echo.Map{"venue_id": "arena", "seat_ids": []string{"S-A1"},
			"addons": []echo.Map{{"addon_id": "parking", "quantity": int64(4e15)}}}, "invalid_quantity"},
		{"huge base", echo.Map{"venue_id": "arena", "seat_ids": []string{"S-A1"}, "base_price_pence": int64(math.MaxInt64 / 2)}, "invalid_base_price"},
	}
	for _, tc := range bad {
		var e errorBody
		if code := f.do(t, http.MethodPost, "/v1/quote", "", tc.body, &e); code != http.StatusBadRequest || e.Code != tc.code {
			t.Errorf("%s = %d %+v, want 400 %s", tc.name, code, e, tc.code)
		}
	}
}

func TestMarkTakenRequiresOwner(t *testing.T) {
	f := newFixture(t)
	var s sessionBody
	f.do(t, http.MethodPost, "/v1/venues/arena/sessions", "", nil, &s)
	sid := s.Session.ID
	f.do(t, http.MethodPost, "/v1/sessions/"+sid+"/seats", "", echo.Map{"seat_id": "S-C3"}, nil)

	path := "/v1/venues/arena/seats/S-C3/taken"
	if code := f.do(t, http.MethodPost, path, "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", code)
	}
	if code := f.do(t, http.MethodPost, path, token(t, "CUSTOMER"), nil, nil); code != http.StatusForbidden {
		t.Fatalf("customer = %d", code)
	}
	var out struct {
		Evicted []selection.Eviction `json:"evicted"`
	}
	if code := f.do(t, http.MethodPost, path, token(t, "OWNER"), nil, &out); code != http.StatusOK {
		t.Fatalf("owner = %d", code)
	}
	if len(out.Evicted) != 1 || out.Evicted[0].SessionID != sid || out.Evicted[0].Reason != selection.ReasonTaken {
		t.Fatalf("evicted = %+v", out.Evicted)
	}

	f.do(t, http.MethodGet, "/v1/sessions/"+sid, "", nil, &s)
	if len(s.Session.SeatIDs) != 0 {
		t.Fatalf("seat still selected: %v", s.Session.SeatIDs)
	}
	var e errorBody
	if code := f.do(t, http.MethodPost, "/v1/sessions/"+sid+"/seats", "", echo.Map{"seat_id": "S-C3"}, &e); code != http.StatusConflict {
		t.Fatalf("reselect taken seat = %d", code)
	}
	if code := f.do(t, http.MethodPost, "/v1/venues/arena/seats/Z-1/taken", token(t, "OWNER"), nil, &e); code != http.StatusNotFound {
		t.Fatalf("unknown seat = %d", code)
	}

	var v struct {
		Sections []struct {
			ID        string `json:"id"`
			Available int    `json:"available"`
		} `json:"sections"`
	}
	f.do(t, http.MethodGet, "/v1/venues/arena", "", nil, &v)
	for _, sec := range v.Sections {
		if sec.ID == "stalls" && sec.Available != 46 {
			t.Fatalf("stalls available = %d, want 46", sec.Available)
		}
	}
}

func TestCreateListing(t *testing.T) {
	f := newFixture(t)
	path := "/v1/tickets/T1/listings"
	customer := token(t, "CUSTOMER")

	if code := f.do(t, http.MethodPost, path, "", echo.Map{"price_pence": 10500}, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", code)
	}

	var e errorBody
	if code := f.do(t, http.MethodPost, path, customer, echo.Map{"price_pence": 11001}, &e); code != http.StatusUnprocessableEntity {
		t.Fatalf("over cap = %d", code)
	}
	if e.Code != "price_cap_exceeded" || e.Attempted != 11001 || e.Cap != 11000 {
		t.Fatalf("cap error = %+v", e)
	}
	if code := f.do(t, http.MethodPost, path, customer, echo.Map{"price_pence": 0}, &e); code != http.StatusBadRequest || e.Code != "invalid_price" {
		t.Fatalf("zero price = %d %+v", code, e)
	}

	var l struct {
		ID     string `json:"id"`
		Cap    int64  `json:"cap_pence"`
		Fee    int64  `json:"fee_pence"`
		Payout int64  `json:"payout_pence"`
	}
	if code := f.do(t, http.MethodPost, path, customer, echo.Map{"price_pence": 11000}, &l); code != http.StatusCreated {
		t.Fatalf("at cap = %d", code)
	}
	if l.ID == "" || l.Cap != 11000 || l.Fee != 1100 || l.Payout != 9900 {
		t.Fatalf("listing = %+v", l)
	}
	if code := f.do(t, http.MethodPost, path, customer, echo.Map{"price_pence": 10000}, &e); code != http.StatusConflict || e.Code != "already_listed" {
		t.Fatalf("relist = %d %+v", code, e)
	}
	if code := f.do(t, http.MethodPost, "/v1/tickets/T9/listings", customer, echo.Map{"price_pence": 100}, &e); code != http.StatusNotFound {
		t.Fatalf("unknown ticket = %d", code)
	}
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	var snap settings.Snapshot
	if code := f.do(t, http.MethodGet, "/v1/settings", "", nil, &snap); code != http.StatusOK || snap.Version != 1 || snap.Currency != "GBP" {
		t.Fatalf("get = %d %+v", code, snap)
	}
	update := echo.Map{"currency": "EUR", "locale": "de-DE"}
	if code := f.do(t, http.MethodPut, "/v1/settings", token(t, "CUSTOMER"), update, nil); code != http.StatusForbidden {
		t.Fatalf("customer update = %d", code)
	}
	if code := f.do(t, http.MethodPut, "/v1/settings", token(t, "OWNER"), update, &snap); code != http.StatusOK || snap.Version != 2 || snap.Currency != "EUR" {
		t.Fatalf("owner update = %d %+v", code, snap)
	}
	var e errorBody
	if code := f.do(t, http.MethodPut, "/v1/settings", token(t, "OWNER"), echo.Map{"currency": "XX"}, &e); code != http.StatusBadRequest || e.Code != "invalid_settings" {
		t.Fatalf("bad currency = %d %+v", code, e)
	}

	var q struct {
		SettingsVersion uint64 `json:"settings_version"`
	}
	f.do(t, http.MethodPost, "/v1/quote", "", echo.Map{"venue_id": "arena"}, &q)
	if q.SettingsVersion != 2 {
		t.Fatalf("quote settings version = %d", q.SettingsVersion)
	}
}

type wsMessage struct {
	Type      string              `json:"type"`
	Transform *viewport.Transform `json:"transform"`
	Hit       *viewport.Hit       `json:"hit"`
	Quote     *struct {
		Session struct {
			SeatIDs []string `json:"seat_ids"`
		} `json:"session"`
		Quote struct {
			Subtotal int64 `json:"subtotal_pence"`
		} `json:"quote"`
	} `json:"quote"`
	Evicted *selection.Eviction `json:"evicted"`
	Code    string              `json:"code"`
}

func readMsg(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m wsMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	var s sessionBody
	f.do(t, http.MethodPost, "/v1/venues/arena/sessions", "", nil, &s)
	sid := s.Session.ID

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + sid + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if m := readMsg(t, conn); m.Type != "transform" || m.Transform.Scale != 1 {
		t.Fatalf("first message = %+v", m)
	}

	send := func(v any) {
		t.Helper()
		if err := conn.WriteJSON(v); err != nil {
			t.Fatal(err)
		}
	}

	send(echo.Map{"type": "wheel", "delta_y": -500})
	if m := readMsg(t, conn); m.Type != "transform" || m.Transform.Scale != 1.5 {
		t.Fatalf("wheel = %+v", m.Transform)
	}
	send(echo.Map{"type": "reset"})
	readMsg(t, conn)

	// Seat S-A1 sits at (130, 240) in layout space.
	send(echo.Map{"type": "pointermove", "x": 131, "y": 241})
	if m := readMsg(t, conn); m.Type != "hit" || m.Hit.SeatID != "S-A1" || m.Hit.SectionID != "stalls" {
		t.Fatalf("hit = %+v", m.Hit)
	}

	send(echo.Map{"type": "select", "x": 130, "y": 240})
	m := readMsg(t, conn)
	if m.Type != "quote" || m.Quote.Quote.Subtotal != 12800 {
		t.Fatalf("select by pointer = %+v", m)
	}

	send(echo.Map{"type": "select", "seat_id": "P-A1"})
	if m := readMsg(t, conn); m.Type != "error" || m.Code != "seat_unavailable" {
		t.Fatalf("select taken = %+v", m)
	}

	if code := f.do(t, http.MethodPost, "/v1/venues/arena/seats/S-A1/taken", token(t, "OWNER"), nil, nil); code != http.StatusOK {
		t.Fatalf("mark taken = %d", code)
	}
	if m := readMsg(t, conn); m.Type != "evicted" || m.Evicted.SeatID != "S-A1" {
		t.Fatalf("eviction = %+v", m)
	}
	if m := readMsg(t, conn); m.Type != "quote" || len(m.Quote.Session.SeatIDs) != 0 {
		t.Fatalf("quote after eviction = %+v", m)
	}

	send(echo.Map{"type": "teleport"})
	if m := readMsg(t, conn); m.Type != "error" || m.Code != "unknown_message" {
		t.Fatalf("unknown message = %+v", m)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
