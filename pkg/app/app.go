// Package app wires the backtest kernel to its operational shell: it
// executes runs from declarative order lists and persists results in the
// run store.
package app

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/priyam-gsc/gscbt/params"
	"github.com/priyam-gsc/gscbt/pkg/backtest"
	"github.com/priyam-gsc/gscbt/pkg/series"
	"github.com/priyam-gsc/gscbt/pkg/storage"
	"github.com/priyam-gsc/gscbt/pkg/util"
)

// OrderSpec is the declarative form of an order, as it appears in order
// files and API requests.
type OrderSpec struct {
	// Type is "market", "limit" or "position".
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Side is "buy" or "sell"; ignored for type "position".
	Side string `json:"side,omitempty"`
	Lot  int64  `json:"lot,omitempty"`
	// Price applies to limit orders only.
	Price float64 `json:"price,omitempty"`
	// Position is the absolute target for type "position".
	Position int64 `json:"position,omitempty"`
}

func parseSide(s string) (backtest.Side, error) {
	switch s {
	case "buy":
		return backtest.Buy, nil
	case "sell":
		return backtest.Sell, nil
	default:
		return backtest.Buy, fmt.Errorf("unknown side %q", s)
	}
}

// App owns the run store and executes backtests.
type App struct {
	cfg    params.Config
	store  *storage.RunStore
	logger *zap.SugaredLogger

	// Clock stamps runs; tests swap in util.FixedClock.
	Clock util.Clock
	// Journal, when set, is handed to every simulator.
	Journal backtest.Journal
	// Verbose enables per-fill logging on the simulator.
	Verbose bool
}

func NewApp(cfg params.Config, store *storage.RunStore, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		store:  store,
		logger: logger,
		Clock:  util.RealClock{},
	}
}

func (a *App) Store() *storage.RunStore { return a.store }

// ExecuteRun runs a full backtest over bars with the given orders and
// parameters, persists the result, and returns the stored run. Orders
// are applied in timestamp order; position-target orders read the
// position just before their own bar, so interleaving is well defined.
func (a *App) ExecuteRun(bars []series.Bar, orders []OrderSpec, p storage.RunParams) (*storage.Run, error) {
	if p.SettlementTime == "" {
		p.SettlementTime = a.cfg.Backtest.SettlementTime
	}
	if p.ExecMode == "" {
		p.ExecMode = a.cfg.Backtest.ExecMode
	}
	mode, err := backtest.ParseLimitOrderExecMode(p.ExecMode)
	if err != nil {
		return nil, err
	}

	s, err := series.New(bars)
	if err != nil {
		return nil, err
	}
	sim, err := backtest.New(s, backtest.Config{
		SettlementTime: p.SettlementTime,
		TradeCost:      p.TradeCost,
		Slippage:       p.Slippage,
		ExecMode:       mode,
	})
	if err != nil {
		return nil, err
	}
	sim.Logger = a.logger
	sim.VerboseLogging = a.Verbose
	sim.Journal = a.Journal

	sorted := make([]OrderSpec, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	for i, spec := range sorted {
		if err := a.placeOrder(sim, spec); err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
	}
	sim.Complete()

	table := sim.Table()
	run := &storage.Run{
		ID:        fmt.Sprintf("run-%d", a.Clock.Now().UnixNano()),
		CreatedAt: a.Clock.Now(),
		Params:    p,
		Summary:   storage.Summarize(table),
		Table:     table,
	}
	if err := a.store.SaveRun(run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	if a.logger != nil {
		a.logger.Infow("run_completed",
			"run_id", run.ID,
			"bars", run.Summary.Bars,
			"final_pos", run.Summary.FinalPosition,
			"m2m", run.Summary.M2M,
			"m2m_net", run.Summary.M2MNet)
	}
	return run, nil
}

func (a *App) placeOrder(sim *backtest.Simulator, spec OrderSpec) error {
	switch spec.Type {
	case "market":
		side, err := parseSide(spec.Side)
		if err != nil {
			return err
		}
		return sim.PlaceOrder(&backtest.MarketOrder{
			Timestamp: spec.Timestamp, Side: side, Lot: spec.Lot,
		})
	case "limit":
		side, err := parseSide(spec.Side)
		if err != nil {
			return err
		}
		return sim.PlaceOrder(&backtest.LimitOrder{
			Timestamp: spec.Timestamp, Side: side, Lot: spec.Lot, Price: spec.Price,
		})
	case "position":
		return sim.PlaceOrderPositionAware(&backtest.PositionAwareMarketOrder{
			Timestamp: spec.Timestamp, Position: spec.Position,
		})
	default:
		return fmt.Errorf("unknown order type %q", spec.Type)
	}
}

// ListRuns returns stored run metadata.
func (a *App) ListRuns() ([]*storage.Run, error) { return a.store.ListRuns() }

// GetRun returns one run's metadata, or nil if absent.
func (a *App) GetRun(id string) (*storage.Run, error) { return a.store.GetRun(id) }

// GetTable returns one run's full augmented table, or nil if absent.
func (a *App) GetTable(id string) ([]series.Row, error) { return a.store.GetTable(id) }

// DeleteRun removes a stored run.
func (a *App) DeleteRun(id string) error { return a.store.DeleteRun(id) }
