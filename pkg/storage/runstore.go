// Package storage persists completed backtest runs in Pebble and provides
// the fill journal implementations used by the simulator.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/priyam-gsc/gscbt/pkg/series"
)

// RunParams records the scalar parameters a run was executed with.
type RunParams struct {
	SettlementTime string  `json:"settlementTime"`
	TradeCost      float64 `json:"tradeCost"`
	Slippage       float64 `json:"slippage"`
	ExecMode       string  `json:"execMode"`
}

// RunSummary is the headline result of a run.
type RunSummary struct {
	Bars          int     `json:"bars"`
	FinalPosition int64   `json:"finalPosition"`
	M2M           float64 `json:"m2m"`
	M2MNet        float64 `json:"m2mNet"`
	TotalCost     float64 `json:"totalCost"`
	TotalSlippage float64 `json:"totalSlippage"`
}

// Run is one persisted backtest: metadata plus the full augmented table.
type Run struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Params    RunParams  `json:"params"`
	Summary   RunSummary `json:"summary"`

	// Table is stored under its own key and loaded on demand.
	Table []series.Row `json:"-"`
}

// Summarize builds a RunSummary from an augmented table.
func Summarize(table []series.Row) RunSummary {
	s := RunSummary{Bars: len(table)}
	if len(table) == 0 {
		return s
	}
	last := table[len(table)-1]
	s.FinalPosition = last.Position
	s.M2M = last.M2MCont
	s.M2MNet = last.M2MContNet
	for _, row := range table {
		s.TotalCost += row.Cost
		s.TotalSlippage += row.Slippage
	}
	return s
}

// RunStore persists runs in a Pebble database.
// Keys: r:<id> run metadata (JSON), t:<id> augmented table (gob).
type RunStore struct {
	db *pebble.DB
}

func NewRunStore(path string) (*RunStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &RunStore{db: db}, nil
}

func (s *RunStore) Close() error { return s.db.Close() }

func kRun(id string) []byte   { return append([]byte("r:"), id...) }
func kTable(id string) []byte { return append([]byte("t:"), id...) }

// SaveRun persists a run's metadata and table.
func (s *RunStore) SaveRun(run *Run) error {
	meta, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	table, err := encodeGob(run.Table)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", run.ID, err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(kRun(run.ID), meta, nil); err != nil {
		return err
	}
	if err := batch.Set(kTable(run.ID), table, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// GetRun loads a run's metadata. Returns (nil, nil) if absent.
func (s *RunStore) GetRun(id string) (*Run, error) {
	val, closer, err := s.db.Get(kRun(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	defer closer.Close()

	var run Run
	if err := json.Unmarshal(val, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

// GetTable loads a run's augmented table. Returns (nil, nil) if absent.
func (s *RunStore) GetTable(id string) ([]series.Row, error) {
	val, closer, err := s.db.Get(kTable(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get table %s: %w", id, err)
	}
	defer closer.Close()

	var table []series.Row
	if err := decodeGob(val, &table); err != nil {
		return nil, fmt.Errorf("decode table %s: %w", id, err)
	}
	return table, nil
}

// ListRuns returns metadata for all stored runs, in key order.
func (s *RunStore) ListRuns() ([]*Run, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("r:"),
		UpperBound: []byte("r;"), // ';' is the byte after ':'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var runs []*Run
	for iter.First(); iter.Valid(); iter.Next() {
		var run Run
		if err := json.Unmarshal(iter.Value(), &run); err != nil {
			return nil, fmt.Errorf("unmarshal run %s: %w", iter.Key(), err)
		}
		runs = append(runs, &run)
	}
	return runs, iter.Error()
}

// DeleteRun removes a run's metadata and table.
func (s *RunStore) DeleteRun(id string) error {
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(kRun(id), nil); err != nil {
		return err
	}
	if err := batch.Delete(kTable(id), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}
