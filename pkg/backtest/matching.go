package backtest

import (
	"fmt"
	"time"
)

// matchLimitOrders applies pending limit orders against bar i. A limit is
// eligible when its timestamp has been reached and its price lies inside
// [min(prev, curr), max(prev, curr)] of the two consecutive closes, the
// engine's only proxy for the intrabar range. Orders that stay pending
// are re-queued unchanged.
func (sim *Simulator) matchLimitOrders(i int) {
	row := sim.series.At(i)
	prevClose := sim.series.At(i - 1).Close

	lo, hi := prevClose, row.Close
	if lo > hi {
		lo, hi = hi, lo
	}

	var still []*LimitOrder
	for _, o := range sim.pendingLimits {
		if o.Timestamp.After(row.Timestamp) ||
			(o.Side == Buy && o.Price < lo) ||
			(o.Side == Sell && o.Price > hi) {
			still = append(still, o)
			continue
		}

		// Eligibility used [lo, hi]; only the executed price depends
		// on the mode.
		var price float64
		switch sim.execMode {
		case GivenPrice:
			price = o.Price
		default: // WorstCase: adverse close of the two
			if o.Side == Buy {
				price = hi
			} else {
				price = lo
			}
		}

		sim.applyFill(i, o.Side.sign()*o.Lot, price)
	}
	sim.pendingLimits = still
}

// matchMarketOrders applies pending market orders against bar i. A market
// order whose timestamp has been reached fills unconditionally at the
// bar's close.
func (sim *Simulator) matchMarketOrders(i int) {
	row := sim.series.At(i)

	var still []*MarketOrder
	for _, o := range sim.pendingMarkets {
		if o.Timestamp.After(row.Timestamp) {
			still = append(still, o)
			continue
		}
		sim.applyFill(i, o.Side.sign()*o.Lot, row.Close)
	}
	sim.pendingMarkets = still
}

// applyFill books a signed fill on bar i: updates the weighted average
// position price, realizes P&L on any squared-off quantity, and accrues
// trade cost and slippage.
func (sim *Simulator) applyFill(i int, lot int64, price float64) {
	row := sim.series.At(i)
	prevPos, prevPrice := row.Position, row.PositionPrice

	avg, squareOff := averagePrice(prevPrice, prevPos, price, lot)
	if squareOff {
		closed := min64(abs64(prevPos), abs64(lot))
		if lot < 0 {
			closed = -closed
		}
		// P&L crystallized on the closed quantity before the new
		// reference price takes effect.
		pnl := -(price - prevPrice) * float64(closed)
		row.M2M += pnl
		row.M2MCont += pnl
		row.M2MContNet += pnl
	}

	row.PositionPrice = avg
	row.Position += lot
	row.Exec += lot

	cost := sim.tradeCost * float64(abs64(lot))
	slip := sim.slippage * float64(abs64(lot))
	row.Cost += cost
	row.Slippage += slip
	row.M2MContNet -= cost + slip

	if sim.Journal != nil {
		sim.Journal.Append(fmt.Sprintf("fill ts=%s lot=%d price=%g pos=%d avg=%g",
			row.Timestamp.Format(time.RFC3339), lot, price, row.Position, row.PositionPrice))
	}
	if sim.Logger != nil && sim.VerboseLogging {
		sim.Logger.Infow("fill",
			"ts", row.Timestamp, "lot", lot, "price", price,
			"pos", row.Position, "avg_price", row.PositionPrice,
			"square_off", squareOff)
	}
}
