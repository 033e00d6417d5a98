package tests

import (
	"testing"
	"time"

	"github.com/priyam-gsc/gscbt/pkg/backtest"
	"github.com/priyam-gsc/gscbt/pkg/series"
)

// TestMultiDayScenario walks a two-day backtest through fills, partial
// square-off, daily settlement and cost accrual, checking every running
// column against hand-computed values.
func TestMultiDayScenario(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

	bars := []series.Bar{
		{Timestamp: day1, Close: 100},
		{Timestamp: day1.Add(time.Hour), Close: 102},
		{Timestamp: day2, Close: 105},
		{Timestamp: day2.Add(time.Hour), Close: 101},
		{Timestamp: day3, Close: 103},
	}

	s, err := series.New(bars)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	sim, err := backtest.New(s, backtest.Config{
		SettlementTime: "00:00:00",
		TradeCost:      0.5,
		Slippage:       0.25,
	})
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}

	sim.PlaceOrder(&backtest.MarketOrder{Timestamp: bars[1].Timestamp, Side: backtest.Buy, Lot: 2})
	sim.PlaceOrder(&backtest.LimitOrder{Timestamp: bars[2].Timestamp, Side: backtest.Sell, Lot: 1, Price: 104})
	sim.PlaceOrder(&backtest.MarketOrder{Timestamp: bars[4].Timestamp, Side: backtest.Sell, Lot: 1})
	sim.Complete()

	table := sim.Table()

	// Bar 1: buy 2 @ close 102; same-day settlement realizes 0.
	row := table[1]
	if row.Position != 2 || row.PositionPrice != 102 {
		t.Errorf("bar 1: pos %d@%v, want 2@102", row.Position, row.PositionPrice)
	}
	if row.M2MCont != 0 || row.M2MContNet != -1.5 {
		t.Errorf("bar 1: m2m %v net %v, want 0 / -1.5", row.M2MCont, row.M2MContNet)
	}

	// Bar 2: limit sell 1 fills worst-case at min(102,105)=102 (partial
	// close, zero realized), then settlement books (105−102)×1 = 3.
	row = table[2]
	if row.Position != 1 || row.PositionPrice != 105 {
		t.Errorf("bar 2: pos %d@%v, want 1@105", row.Position, row.PositionPrice)
	}
	if row.M2MCont != 3 || row.M2MContNet != 2.25 {
		t.Errorf("bar 2: m2m %v net %v, want 3 / 2.25", row.M2MCont, row.M2MContNet)
	}

	// Bar 3: nothing happens; running columns carry forward.
	row = table[3]
	if row.M2M != 0 || row.M2MCont != 3 || row.M2MContNet != 2.25 {
		t.Errorf("bar 3: m2m %v cont %v net %v, want 0 / 3 / 2.25", row.M2M, row.M2MCont, row.M2MContNet)
	}

	// Bar 4: market sell 1 @ 103 fully closes the 1 @ 105 carry:
	// realized −2. The position is flat afterwards, so no settlement
	// bookkeeping runs and the running columns restart from this bar's
	// own contributions (documented engine behavior).
	row = table[4]
	if row.Position != 0 || row.PositionPrice != 0 {
		t.Errorf("bar 4: pos %d@%v, want flat", row.Position, row.PositionPrice)
	}
	if row.M2M != -2 || row.M2MCont != -2 || row.M2MContNet != -2.75 {
		t.Errorf("bar 4: m2m %v cont %v net %v, want -2 / -2 / -2.75", row.M2M, row.M2MCont, row.M2MContNet)
	}

	if sim.PendingOrders() != 0 {
		t.Errorf("pending = %d, want 0", sim.PendingOrders())
	}
}

// TestMarketOnlyPositionSum checks that with market orders alone, the
// final position is the sum of signed lots effective up to the query.
func TestMarketOnlyPositionSum(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	bars := make([]series.Bar, 6)
	for i := range bars {
		bars[i] = series.Bar{Timestamp: start.Add(time.Duration(i) * time.Hour), Close: 100 + float64(i)}
	}

	s, _ := series.New(bars)
	sim, err := backtest.New(s, backtest.Config{SettlementTime: "23:59:59"})
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}

	lots := []struct {
		bar  int
		side backtest.Side
		lot  int64
	}{
		{1, backtest.Buy, 3},
		{2, backtest.Sell, 1},
		{3, backtest.Buy, 2},
		{5, backtest.Sell, 4},
	}
	for _, l := range lots {
		sim.PlaceOrder(&backtest.MarketOrder{Timestamp: bars[l.bar].Timestamp, Side: l.side, Lot: l.lot})
	}

	// Query in timestamp order; the cursor only moves forward.
	want := []int64{3, 2, 4, 4, 0}
	for i, wantPos := range want {
		bar := i + 1
		if pos := sim.Position(bars[bar].Timestamp); pos != wantPos {
			t.Errorf("position at bar %d = %d, want %d", bar, pos, wantPos)
		}
	}
}
