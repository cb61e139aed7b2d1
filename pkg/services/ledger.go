package services

import (
	"sync"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
)

// Ledger collects downloads that failed after every retry. It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	records []data.FailureRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(record data.FailureRecord) {
	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()
}

// DrainAll returns the current records in append order and clears the ledger.
func (l *Ledger) DrainAll() []data.FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.records
	l.records = nil
	if out == nil {
		return []data.FailureRecord{}
	}
	return out
}

// Snapshot returns a copy of the current records without clearing them.
func (l *Ledger) Snapshot() []data.FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]data.FailureRecord{}, l.records...)
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
