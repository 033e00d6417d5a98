package backtest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/priyam-gsc/gscbt/pkg/series"
)

// LimitOrderExecMode selects the price a matched limit order executes at.
type LimitOrderExecMode int8

const (
	// WorstCase (default) fills a buy at the higher and a sell at the
	// lower of the two closes spanning the bar: the limit touched its
	// trigger, but no better fill than the adverse close is assumed.
	WorstCase LimitOrderExecMode = iota
	// GivenPrice fills exactly at the order's limit price.
	GivenPrice
)

func (m LimitOrderExecMode) String() string {
	switch m {
	case GivenPrice:
		return "given_price"
	case WorstCase:
		return "worst_case"
	default:
		return "unknown"
	}
}

// ParseLimitOrderExecMode parses "worst_case" or "given_price".
func ParseLimitOrderExecMode(s string) (LimitOrderExecMode, error) {
	switch s {
	case "worst_case", "":
		return WorstCase, nil
	case "given_price":
		return GivenPrice, nil
	default:
		return WorstCase, fmt.Errorf("unknown limit order exec mode %q", s)
	}
}

// Journal records executed fills and settlements, one line per event.
// Implementations live in pkg/storage (FileJournal, NopJournal).
type Journal interface {
	Append(line string)
}

// Config carries the scalar simulation parameters.
type Config struct {
	// SettlementTime is the daily mark-to-market instant as wall-clock
	// time of day ("17:00:00"), interpreted in the series' timezone.
	SettlementTime string
	// TradeCost is charged per unit lot on every fill.
	TradeCost float64
	// Slippage is charged per unit lot on every fill.
	Slippage float64
	// ExecMode selects limit order fill pricing. Zero value is WorstCase.
	ExecMode LimitOrderExecMode
}

// Simulator replays buy/sell orders against a historical bar series and
// tracks the resulting positions, fills and P&L, including transaction
// cost, slippage and daily settlement.
//
// A simulator owns all of its mutable state (cursor, pending queues,
// augmented series). It is single-threaded: callers must serialize access
// to one instance.
//
// Queries take a timestamp and advance the cursor up to it. The cursor
// never rewinds: querying with a timestamp earlier than a bar already
// processed is a no-op that returns the latest computed value, not the
// historical one. Callers are expected to query in timestamp order.
type Simulator struct {
	series *series.Series

	cursor         int
	pendingLimits  []*LimitOrder
	pendingMarkets []*MarketOrder

	settleAt   TimeOfDay
	nextSettle time.Time

	tradeCost float64
	slippage  float64
	execMode  LimitOrderExecMode

	// Optional hooks, nil-safe.
	Logger         *zap.SugaredLogger
	VerboseLogging bool
	Journal        Journal
}

// New creates a simulator over s. The series is mutated in place as the
// cursor advances and must not be shared between simulators.
func New(s *series.Series, cfg Config) (*Simulator, error) {
	settleAt, err := ParseTimeOfDay(cfg.SettlementTime)
	if err != nil {
		return nil, fmt.Errorf("settlement time: %w", err)
	}
	return &Simulator{
		series: s,
		// The first bar can never fill: there is no prior close to
		// form a price range against.
		cursor:    1,
		settleAt:  settleAt,
		tradeCost: cfg.TradeCost,
		slippage:  cfg.Slippage,
		execMode:  cfg.ExecMode,
	}, nil
}

// PlaceOrder queues a market or limit order for execution. Any other
// order variant is rejected with ErrInvalidOrderKind.
func (sim *Simulator) PlaceOrder(order Order) error {
	switch o := order.(type) {
	case *MarketOrder:
		sim.pendingMarkets = append(sim.pendingMarkets, o)
	case *LimitOrder:
		sim.pendingLimits = append(sim.pendingLimits, o)
	case *PositionAwareMarketOrder:
		return fmt.Errorf("%w: %T must go through PlaceOrderPositionAware", ErrInvalidOrderKind, order)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidOrderKind, order)
	}
	return nil
}

// PlaceOrderPositionAware translates a position-target order into a
// sized market order: delta = target − position(Timestamp − 1s). A zero
// delta is a no-op. Reading the position one second before the order's
// timestamp keeps the read from processing the order's own bar.
func (sim *Simulator) PlaceOrderPositionAware(order Order) error {
	o, ok := order.(*PositionAwareMarketOrder)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrNotPositionAware, order)
	}

	pos := sim.Position(o.Timestamp.Add(-time.Second))
	delta := o.Position - pos
	if delta == 0 {
		return nil
	}
	side := Buy
	if delta < 0 {
		side = Sell
	}
	return sim.PlaceOrder(&MarketOrder{
		Timestamp: o.Timestamp,
		Side:      side,
		Lot:       abs64(delta),
	})
}

// Advance processes bars while the bar at the cursor has a timestamp
// <= target, in order: copy forward position state, match limit orders,
// match market orders, run settlement, step the cursor. Advancing to a
// timestamp already passed does nothing.
func (sim *Simulator) Advance(target time.Time) {
	for sim.cursor < sim.series.Len() && !sim.series.At(sim.cursor).Timestamp.After(target) {
		i := sim.cursor
		row, prev := sim.series.At(i), sim.series.At(i-1)

		row.Position = prev.Position
		row.PositionPrice = prev.PositionPrice

		sim.matchLimitOrders(i)
		sim.matchMarketOrders(i)
		sim.settle(i)

		sim.cursor++
	}
}

// Complete advances through the entire series.
func (sim *Simulator) Complete() {
	sim.Advance(sim.series.LastTimestamp())
}

// Position returns the signed open position as of ts.
func (sim *Simulator) Position(ts time.Time) int64 {
	sim.Advance(ts)
	return sim.series.At(sim.cursor - 1).Position
}

// M2M returns the running continuous mark-to-market as of ts.
func (sim *Simulator) M2M(ts time.Time) float64 {
	sim.Advance(ts)
	return sim.series.At(sim.cursor - 1).M2MCont
}

// M2MNet returns the running continuous mark-to-market net of cost and
// slippage as of ts.
func (sim *Simulator) M2MNet(ts time.Time) float64 {
	sim.Advance(ts)
	return sim.series.At(sim.cursor - 1).M2MContNet
}

// Table returns a copy of the full augmented series.
func (sim *Simulator) Table() []series.Row {
	return sim.series.Rows()
}

// PendingOrders returns the number of queued, unmatched orders.
func (sim *Simulator) PendingOrders() int {
	return len(sim.pendingLimits) + len(sim.pendingMarkets)
}
