package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// LoadCSV reads input bars from a CSV file with header "timestamp,close".
// Timestamps are RFC3339 (e.g. 2024-03-01T17:00:00-05:00); the offset in
// the file carries the series' timezone.
func LoadCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses bars from r. See LoadCSV for the expected format.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}

	// Header row is optional.
	start := 0
	if records[0][0] == "timestamp" {
		start = 1
	}

	bars := make([]Bar, 0, len(records)-start)
	for i, rec := range records[start:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: want 2 columns, got %d", i+start, len(rec))
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp %q: %w", i+start, rec[0], err)
		}
		px, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad close %q: %w", i+start, rec[1], err)
		}
		bars = append(bars, Bar{Timestamp: ts, Close: px})
	}
	return bars, nil
}

// WriteCSV writes the full augmented table to path, one row per bar.
func WriteCSV(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	_ = w.Write([]string{
		"timestamp", "close", "exec", "pos", "pos_price",
		"m2m", "m2m_cont", "cost", "slippage", "m2m_cNs_cont",
	})
	for _, row := range rows {
		_ = w.Write([]string{
			row.Timestamp.Format(time.RFC3339),
			formatF(row.Close),
			strconv.FormatInt(row.Exec, 10),
			strconv.FormatInt(row.Position, 10),
			formatF(row.PositionPrice),
			formatF(row.M2M),
			formatF(row.M2MCont),
			formatF(row.Cost),
			formatF(row.Slippage),
			formatF(row.M2MContNet),
		})
	}
	return w.Error()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
