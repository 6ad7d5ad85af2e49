package pricing

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/venue"
)

const base = money.Amount(12800) // £128

type captureLogger struct {
	mu   sync.Mutex
	logs []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	l.logs = append(l.logs, format)
	l.mu.Unlock()
}

func newEngine(t *testing.T) (*Engine, *venue.Index, *captureLogger) {
	t.Helper()
	idx, err := venue.Load(venue.Sample())
	if err != nil {
		t.Fatal(err)
	}
	logger := &captureLogger{}
	p := DefaultPolicy()
	return New(p, DefaultAddOns(p), logger), idx, logger
}

func TestQuoteTwoPremiumSeats(t *testing.T) {
	e, idx, _ := newEngine(t)
	b, err := e.Quote(idx, []string{"P-B1", "P-B2"}, nil, base)
	if err != nil {
		t.Fatal(err)
	}
	if b.Subtotal != 51200 || b.ServiceFee != 5120 || b.GrandTotal != 56320 {
		t.Fatalf("subtotal %s fee %s total %s, want 512.00 51.20 563.20", b.Subtotal, b.ServiceFee, b.GrandTotal)
	}
	if len(b.Seats) != 2 || b.Seats[0].Price != 25600 || b.Seats[0].SectionID != "premium" {
		t.Fatalf("seat lines = %+v", b.Seats)
	}
	if b.AddOnTotal != 0 || b.BundleDiscount != 0 {
		t.Fatalf("add-ons priced without being chosen: %+v", b)
	}
}

func TestQuoteFastTrackAndParking(t *testing.T) {
	e, idx, _ := newEngine(t)
	lines := []model.AddOnLine{
		{AddOnID: AddOnFastTrack, Quantity: 1},
		{AddOnID: AddOnParking, Quantity: 1},
	}
	b, err := e.Quote(idx, []string{"S-A1"}, lines, base)
	if err != nil {
		t.Fatal(err)
	}
	if b.AddOnTotal != 4000 || b.BundleDiscount != 400 || b.AddOnNet() != 3600 {
		t.Fatalf("raw %s discount %s net %s, want 40.00 4.00 36.00", b.AddOnTotal, b.BundleDiscount, b.AddOnNet())
	}
	if want := money.Amount(12800 + 1280 + 3600); b.GrandTotal != want {
		t.Fatalf("grand total %s, want %s", b.GrandTotal, want)
	}
}

func TestBundleDiscountThreshold(t *testing.T) {
	e, idx, _ := newEngine(t)
	tests := []struct {
		name  string
		lines []model.AddOnLine
		want  money.Amount
	}{
		{"none", nil, 0},
		{"one add-on", []model.AddOnLine{{AddOnID: AddOnParking, Quantity: 3}}, 0},
		{"one chosen one zero", []model.AddOnLine{{AddOnID: AddOnParking, Quantity: 1}, {AddOnID: AddOnFastTrack, Quantity: 0}}, 0},
		{"two add-ons", []model.AddOnLine{{AddOnID: AddOnParking, Quantity: 2}, {AddOnID: AddOnMerch, Quantity: 1}}, 700},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := e.Quote(idx, []string{"S-A1"}, tt.lines, base)
			if err != nil {
				t.Fatal(err)
			}
			if b.BundleDiscount != tt.want {
				t.Fatalf("discount = %s, want %s", b.BundleDiscount, tt.want)
			}
		})
	}
}

func TestShieldFollowsSubtotal(t *testing.T) {
	e, idx, _ := newEngine(t)
	shield := []model.AddOnLine{{AddOnID: AddOnShield, Quantity: 1}}

	one, err := e.Quote(idx, []string{"S-A1"}, shield, base)
	if err != nil {
		t.Fatal(err)
	}
	two, err := e.Quote(idx, []string{"S-A1", "S-A2"}, shield, base)
	if err != nil {
		t.Fatal(err)
	}
	if one.AddOns[0].UnitPrice != 896 || two.AddOns[0].UnitPrice != 1792 {
		t.Fatalf("shield = %s then %s, want 8.96 then 17.92", one.AddOns[0].UnitPrice, two.AddOns[0].UnitPrice)
	}

	withParking, err := e.Quote(idx, []string{"P-B1", "P-B2"}, append(shield, model.AddOnLine{AddOnID: AddOnParking, Quantity: 1}), base)
	if err != nil {
		t.Fatal(err)
	}
	// 7% of 512.00 is 35.84; 10% of 60.84 rounds to 6.08.
	if withParking.AddOnTotal != 6084 || withParking.BundleDiscount != 608 {
		t.Fatalf("raw %s discount %s", withParking.AddOnTotal, withParking.BundleDiscount)
	}
}

func TestServiceFeeRoundsHalfUp(t *testing.T) {
	e, idx, _ := newEngine(t)
	b, err := e.Quote(idx, []string{"S-A1"}, nil, 1005)
	if err != nil {
		t.Fatal(err)
	}
	if b.ServiceFee != 101 {
		t.Fatalf("fee on 10.05 = %s, want 1.01", b.ServiceFee)
	}
}

func TestEmptySelectionIsZero(t *testing.T) {
	e, idx, _ := newEngine(t)
	b, err := e.Quote(idx, nil, []model.AddOnLine{{AddOnID: AddOnParking, Quantity: 1}}, base)
	if err != nil {
		t.Fatal(err)
	}
	if b.Subtotal != 0 || b.ServiceFee != 0 || b.AddOnTotal != 0 || b.BundleDiscount != 0 || b.GrandTotal != 0 {
		t.Fatalf("empty quote = %+v", b)
	}
	if b.Seats == nil || b.AddOns == nil {
		t.Fatal("empty quote should carry empty lines, not nil")
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	e, idx, _ := newEngine(t)
	seats := []string{"P-B3", "S-C7", "B-A2"}
	lines := []model.AddOnLine{{AddOnID: AddOnShield, Quantity: 2}, {AddOnID: AddOnFastTrack, Quantity: 3}}
	a, err := e.Quote(idx, seats, lines, base)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Quote(idx, seats, lines, base)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("quotes differ:\n%+v\n%+v", a, b)
	}
}

func TestDuplicateSeatCountedOnce(t *testing.T) {
	e, idx, _ := newEngine(t)
	b, err := e.Quote(idx, []string{"S-A1", "S-A1"}, nil, base)
	if err != nil {
		t.Fatal(err)
	}
	if b.Subtotal != base || len(b.Seats) != 1 {
		t.Fatalf("subtotal %s with %d lines", b.Subtotal, len(b.Seats))
	}
}

func TestQuoteRejectsBadLines(t *testing.T) {
	e, idx, _ := newEngine(t)
	tests := []struct {
		name  string
		lines []model.AddOnLine
		want  error
	}{
		{"negative", []model.AddOnLine{{AddOnID: AddOnParking, Quantity: -1}}, ErrInvalidQuantity},
		{"over stock", []model.AddOnLine{{AddOnID: AddOnMerch, Quantity: 51}}, ErrInvalidQuantity},
		{"over stock across lines", []model.AddOnLine{{AddOnID: AddOnMerch, Quantity: 30}, {AddOnID: AddOnMerch, Quantity: 30}}, ErrInvalidQuantity},
		{"unknown", []model.AddOnLine{{AddOnID: "lounge", Quantity: 1}}, ErrUnknownAddOn},
		{"above max", []model.AddOnLine{{AddOnID: AddOnParking, Quantity: MaxQuantity + 1}}, ErrInvalidQuantity},
		{"huge", []model.AddOnLine{{AddOnID: AddOnParking, Quantity: 4e15}}, ErrInvalidQuantity},
		{"lines summing past max", []model.AddOnLine{
			{AddOnID: AddOnFastTrack, Quantity: math.MaxInt64/2 + 1},
			{AddOnID: AddOnFastTrack, Quantity: math.MaxInt64/2 + 1},
		}, ErrInvalidQuantity},
		{"two lines just past max", []model.AddOnLine{
			{AddOnID: AddOnFastTrack, Quantity: MaxQuantity},
			{AddOnID: AddOnFastTrack, Quantity: 1},
		}, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Quote(idx, []string{"S-A1"}, tt.lines, base); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := e.Quote(idx, nil, nil, -1); !errors.Is(err, ErrInvalidBasePrice) {
		t.Fatalf("negative base: %v", err)
	}
	if _, err := e.Quote(idx, []string{"S-A1"}, nil, math.MaxInt64/2); !errors.Is(err, ErrInvalidBasePrice) {
		t.Fatalf("huge base: %v", err)
	}
}

func TestQuoteAtBounds(t *testing.T) {
	e, idx, _ := newEngine(t)
	seats := []string{"P-A3", "P-A4", "P-B1", "P-B2", "P-B3", "P-B4", "S-A1", "S-A2", "S-A3", "S-A4"}
	lines := []model.AddOnLine{
		{AddOnID: AddOnShield, Quantity: MaxQuantity},
		{AddOnID: AddOnFastTrack, Quantity: MaxQuantity},
		{AddOnID: AddOnParking, Quantity: MaxQuantity},
	}
	b, err := e.Quote(idx, seats, lines, MaxBasePrice)
	if err != nil {
		t.Fatal(err)
	}
	if b.Subtotal <= 0 || b.AddOnTotal <= 0 || b.GrandTotal <= b.Subtotal {
		t.Fatalf("quote at bounds = %+v", b)
	}
}

func TestQuoteReportsOverflow(t *testing.T) {
	e := New(DefaultPolicy(), []model.AddOn{{ID: "yacht", UnitPrice: math.MaxInt64 / 2}}, nil)
	_, err := e.Quote(brokenSections{}, []string{"x-1"}, []model.AddOnLine{{AddOnID: "yacht", Quantity: 3}}, base)
	if !errors.Is(err, money.ErrOverflow) {
		t.Fatalf("err = %v, want overflow", err)
	}
}

type brokenSections struct{}

func (brokenSections) SectionContaining(seatID string) (model.Section, bool) {
	if strings.HasPrefix(seatID, "orphan") {
		return model.Section{}, false
	}
	return model.Section{ID: "ghost"}, true
}

func (brokenSections) MultiplierBps(string) (int64, bool) { return 0, false }

func TestMissingSectionPricesAtFaceValue(t *testing.T) {
	logger := &captureLogger{}
	e := New(DefaultPolicy(), nil, logger)
	b, err := e.Quote(brokenSections{}, []string{"orphan-1", "x-1"}, nil, base)
	if err != nil {
		t.Fatalf("missing section must not fail: %v", err)
	}
	if b.Subtotal != 2*base {
		t.Fatalf("subtotal %s, want %s", b.Subtotal, 2*base)
	}
	if len(logger.logs) != 2 {
		t.Fatalf("logged %d lines, want 2", len(logger.logs))
	}
}
