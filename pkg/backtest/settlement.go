package backtest

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date, composed with a calendar
// date and an IANA timezone to produce settlement instants. DST shifts
// follow the zone's rules; the boundary is not special-cased.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// on combines t with the calendar date of ts, in loc.
func (t TimeOfDay) on(ts time.Time, loc *time.Location) time.Time {
	d := ts.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

// settle runs daily mark-to-market on bar i. Once the bar crosses the
// scheduled settlement instant, the open position's interim P&L against
// its reference price is realized and the position is carried at the
// settlement (close) price. On bars between settlements, the running
// continuous accumulators carry forward from the previous bar. A flat
// position gets no settlement bookkeeping at all.
func (sim *Simulator) settle(i int) {
	row := sim.series.At(i)
	loc := sim.series.Location()

	if sim.nextSettle.IsZero() {
		sim.nextSettle = sim.settleAt.on(row.Timestamp, loc)
	}

	if row.Position == 0 {
		return
	}

	if !row.Timestamp.Before(sim.nextSettle) {
		sim.nextSettle = sim.settleAt.on(row.Timestamp.In(loc).AddDate(0, 0, 1), loc)

		settlePrice := row.Close
		pnl := (settlePrice - row.PositionPrice) * float64(row.Position)

		row.PositionPrice = settlePrice
		row.M2M += pnl
		row.M2MCont += pnl
		row.M2MContNet += pnl

		if sim.Journal != nil {
			sim.Journal.Append(fmt.Sprintf("settle ts=%s price=%g pos=%d pnl=%g",
				row.Timestamp.Format(time.RFC3339), settlePrice, row.Position, pnl))
		}
		if sim.Logger != nil && sim.VerboseLogging {
			sim.Logger.Infow("settle",
				"ts", row.Timestamp, "price", settlePrice,
				"pos", row.Position, "pnl", pnl,
				"next_settle", sim.nextSettle)
		}
	} else if i > 1 {
		prev := sim.series.At(i - 1)
		row.M2MCont += prev.M2MCont
		row.M2MContNet += prev.M2MContNet
	}
}
