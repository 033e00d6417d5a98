package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/priyam-gsc/gscbt/pkg/backtest"
)

// NopJournal discards fill records.
type NopJournal struct{}

func NewNopJournal() *NopJournal      { return &NopJournal{} }
func (j *NopJournal) Append(_ string) {}

// FileJournal appends one line per fill or settlement to a file, giving a
// replayable record of everything the simulator executed.
type FileJournal struct {
	mu sync.Mutex
	f  *os.File
}

func NewFileJournal(path string) (*FileJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileJournal{f: f}, nil
}

func (j *FileJournal) Append(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fmt.Fprintln(j.f, line)
}

func (j *FileJournal) Close() error { return j.f.Close() }

var _ backtest.Journal = (*NopJournal)(nil)
var _ backtest.Journal = (*FileJournal)(nil)
