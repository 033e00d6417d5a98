// Package series defines the bar-series contract consumed by the backtest
// engine: a timestamp-ordered table with a closing price per bar, which the
// engine augments in place with execution and P&L columns.
package series

import (
	"fmt"
	"time"
)

// Bar is one input row: a timezone-aware timestamp and a closing price.
// Timestamps must be strictly increasing; the engine does not validate this.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// Row is one bar after augmentation by the engine.
// The engine-owned columns stay zero until the cursor processes the bar.
type Row struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`

	// Exec is the net quantity executed on this bar (sum of signed fills).
	Exec int64 `json:"exec"`
	// Position is the running position after this bar.
	Position int64 `json:"position"`
	// PositionPrice is the weighted average entry price of the open side.
	// Meaningless (held at 0) while Position == 0.
	PositionPrice float64 `json:"positionPrice"`
	// M2M is the P&L realized on this bar (square-offs + settlement).
	M2M float64 `json:"m2m"`
	// M2MCont is the running realized P&L since inception.
	M2MCont float64 `json:"m2mCont"`
	// Cost and Slippage are the transaction charges accrued on this bar.
	Cost     float64 `json:"cost"`
	Slippage float64 `json:"slippage"`
	// M2MContNet is M2MCont net of all cost and slippage charges.
	M2MContNet float64 `json:"m2mContNet"`
}

// Series is a bar table owned by one simulator instance.
// Rows are mutated in place as the cursor advances; callers read them back
// through Rows() or the simulator's query methods.
type Series struct {
	rows []Row
	loc  *time.Location
}

// New builds a series from input bars. The series' timezone is taken from
// the first bar's timestamp location (settlement instants are computed in
// it). At least two bars are required: the first bar can never receive a
// fill because no prior bar exists to form a price range.
func New(bars []Bar) (*Series, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("series needs at least 2 bars, got %d", len(bars))
	}
	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = Row{Timestamp: b.Timestamp, Close: b.Close}
	}
	return &Series{rows: rows, loc: bars[0].Timestamp.Location()}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.rows) }

// At returns a mutable pointer to row i.
func (s *Series) At(i int) *Row { return &s.rows[i] }

// Location returns the series' timezone.
func (s *Series) Location() *time.Location { return s.loc }

// Rows returns a copy of all rows, safe to hold across further advances.
func (s *Series) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// LastTimestamp returns the timestamp of the final bar.
func (s *Series) LastTimestamp() time.Time {
	return s.rows[len(s.rows)-1].Timestamp
}
