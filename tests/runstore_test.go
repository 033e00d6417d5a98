package tests

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/priyam-gsc/gscbt/params"
	"github.com/priyam-gsc/gscbt/pkg/app"
	"github.com/priyam-gsc/gscbt/pkg/series"
	"github.com/priyam-gsc/gscbt/pkg/storage"
	"github.com/priyam-gsc/gscbt/pkg/util"
)

// newTestRunStore creates a run store with a temporary database.
// Each test gets a unique path to avoid Pebble lock conflicts.
func newTestRunStore(t *testing.T) *storage.RunStore {
	dbPath := fmt.Sprintf("./tmp_test_runs_%s.db", strings.ReplaceAll(t.Name(), "/", "_"))
	os.RemoveAll(dbPath)
	t.Cleanup(func() {
		os.RemoveAll(dbPath)
	})

	store, err := storage.NewRunStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create run store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testBars() []series.Bar {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	closes := []float64{100, 102, 105, 101}
	bars := make([]series.Bar, len(closes))
	for i, c := range closes {
		bars[i] = series.Bar{Timestamp: start.Add(time.Duration(i) * time.Hour), Close: c}
	}
	return bars
}

func TestRunStoreRoundtrip(t *testing.T) {
	store := newTestRunStore(t)

	run := &storage.Run{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Params:    storage.RunParams{SettlementTime: "17:00:00", TradeCost: 0.5, ExecMode: "worst_case"},
		Table: []series.Row{
			{Timestamp: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), Close: 100},
			{Timestamp: time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), Close: 102, Position: 2, PositionPrice: 102, Exec: 2},
		},
	}
	run.Summary = storage.Summarize(run.Table)

	if err := store.SaveRun(run); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.ID != run.ID || got.Params.SettlementTime != "17:00:00" {
		t.Errorf("got %+v, want %+v", got, run)
	}
	if got.Summary.FinalPosition != 2 {
		t.Errorf("final position = %d, want 2", got.Summary.FinalPosition)
	}

	table, err := store.GetTable("run-1")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("table rows = %d, want 2", len(table))
	}
	if table[1].PositionPrice != 102 {
		t.Errorf("table row 1 price = %v, want 102", table[1].PositionPrice)
	}
}

func TestRunStoreMissingRun(t *testing.T) {
	store := newTestRunStore(t)

	run, err := store.GetRun("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run != nil {
		t.Errorf("got %+v, want nil", run)
	}

	table, err := store.GetTable("nope")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table != nil {
		t.Errorf("got %d rows, want nil", len(table))
	}
}

func TestRunStoreListAndDelete(t *testing.T) {
	store := newTestRunStore(t)

	for i := 0; i < 3; i++ {
		run := &storage.Run{ID: fmt.Sprintf("run-%d", i), CreatedAt: time.Now()}
		if err := store.SaveRun(run); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}

	if err := store.DeleteRun("run-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	runs, err = store.ListRuns()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("runs after delete = %d, want 2", len(runs))
	}
}

func TestAppExecuteRun(t *testing.T) {
	store := newTestRunStore(t)

	a := app.NewApp(params.Default(), store, nil)
	a.Clock = util.FixedClock{T: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}

	bars := testBars()
	orders := []app.OrderSpec{
		{Type: "market", Timestamp: bars[1].Timestamp, Side: "buy", Lot: 2},
		{Type: "position", Timestamp: bars[3].Timestamp, Position: 0},
	}
	run, err := a.ExecuteRun(bars, orders, storage.RunParams{
		SettlementTime: "23:59:59",
		TradeCost:      0.5,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if run.Summary.Bars != len(bars) {
		t.Errorf("bars = %d, want %d", run.Summary.Bars, len(bars))
	}
	if run.Summary.FinalPosition != 0 {
		t.Errorf("final position = %d, want 0", run.Summary.FinalPosition)
	}
	// 2 lots in, 2 lots out at 0.5 per lot.
	if run.Summary.TotalCost != 2.0 {
		t.Errorf("total cost = %v, want 2.0", run.Summary.TotalCost)
	}
	if run.CreatedAt != (time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("createdAt = %v, want fixed clock instant", run.CreatedAt)
	}

	// Run persisted and loadable.
	got, err := store.GetRun(run.ID)
	if err != nil || got == nil {
		t.Fatalf("stored run: %v / %v", got, err)
	}
	table, err := store.GetTable(run.ID)
	if err != nil {
		t.Fatalf("stored table: %v", err)
	}
	if len(table) != len(bars) {
		t.Errorf("stored rows = %d, want %d", len(table), len(bars))
	}
}

func TestAppExecuteRunRejectsBadOrders(t *testing.T) {
	store := newTestRunStore(t)
	a := app.NewApp(params.Default(), store, nil)

	bars := testBars()
	_, err := a.ExecuteRun(bars, []app.OrderSpec{
		{Type: "stop", Timestamp: bars[1].Timestamp, Side: "buy", Lot: 1},
	}, storage.RunParams{})
	if err == nil {
		t.Error("expected error for unknown order type")
	}

	_, err = a.ExecuteRun(bars, []app.OrderSpec{
		{Type: "market", Timestamp: bars[1].Timestamp, Side: "hold", Lot: 1},
	}, storage.RunParams{})
	if err == nil {
		t.Error("expected error for unknown side")
	}
}
