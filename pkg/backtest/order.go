// Package backtest implements the execution and accounting kernel for
// futures-style backtests: pending order queues, bar-by-bar matching
// against consecutive closes, weighted-average position accounting with
// square-off realization, and daily mark-to-market settlement.
package backtest

import (
	"errors"
	"fmt"
	"time"
)

// Side is an order direction.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// sign returns +1 for buy, -1 for sell.
func (s Side) sign() int64 {
	if s == Sell {
		return -1
	}
	return 1
}

var (
	// ErrInvalidOrderKind is returned when PlaceOrder receives an order
	// variant it cannot queue.
	ErrInvalidOrderKind = errors.New("invalid order kind")

	// ErrNotPositionAware is returned when PlaceOrderPositionAware
	// receives anything but a *PositionAwareMarketOrder.
	ErrNotPositionAware = errors.New("order kind must be PositionAwareMarketOrder")
)

// Order is the closed set of order variants accepted by the simulator:
// *MarketOrder, *LimitOrder and *PositionAwareMarketOrder. PlaceOrder and
// PlaceOrderPositionAware switch exhaustively on the concrete type.
type Order interface {
	// EffectiveAt returns the earliest bar timestamp the order may fill on.
	EffectiveAt() time.Time
}

// MarketOrder fills unconditionally at the close of the first bar whose
// timestamp is >= Timestamp.
type MarketOrder struct {
	Timestamp time.Time
	Side      Side
	Lot       int64 // strictly positive; direction comes from Side
}

func (o *MarketOrder) EffectiveAt() time.Time { return o.Timestamp }

func (o *MarketOrder) String() string {
	return fmt.Sprintf("market %s %d @ %s", o.Side, o.Lot, o.Timestamp.Format(time.RFC3339))
}

// LimitOrder fills only when Price falls inside the range spanned by two
// consecutive closes. Execution price depends on the simulator's
// LimitOrderExecMode.
type LimitOrder struct {
	Timestamp time.Time
	Side      Side
	Lot       int64
	Price     float64
}

func (o *LimitOrder) EffectiveAt() time.Time { return o.Timestamp }

func (o *LimitOrder) String() string {
	return fmt.Sprintf("limit %s %d @ %g from %s", o.Side, o.Lot, o.Price, o.Timestamp.Format(time.RFC3339))
}

// PositionAwareMarketOrder targets an absolute position rather than a
// delta. It is never queued directly: PlaceOrderPositionAware translates
// it into a MarketOrder sized target − position(Timestamp − 1s).
type PositionAwareMarketOrder struct {
	Timestamp time.Time
	Position  int64 // target signed position after execution
}

func (o *PositionAwareMarketOrder) EffectiveAt() time.Time { return o.Timestamp }

func (o *PositionAwareMarketOrder) String() string {
	return fmt.Sprintf("position-aware market -> %d @ %s", o.Position, o.Timestamp.Format(time.RFC3339))
}
