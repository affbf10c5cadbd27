package common

import (
	"sync"
	"time"
)

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// UpdateBaseMetrics updates common metrics fields
func (bm *BaseMetrics) UpdateBaseMetrics(success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]any {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]any{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// ReadMetrics tracks disk activity of a single frame. Column loads are
// counted as operations.
type ReadMetrics struct {
	BaseMetrics
	Reopens   int64
	BytesRead int64
}

// RecordColumn updates metrics after a column load attempt
func (rm *ReadMetrics) RecordColumn(success bool, bytes int64) {
	rm.UpdateBaseMetrics(success)
	rm.Mu.Lock()
	rm.BytesRead += bytes
	rm.Mu.Unlock()
}

// RecordReopen counts a reopen of a handle closed behind the frame's back
func (rm *ReadMetrics) RecordReopen() {
	rm.Mu.Lock()
	rm.Reopens++
	rm.Mu.Unlock()
}

// Snapshot is a copy of ReadMetrics safe to hand out
type Snapshot struct {
	ColumnLoads  int64
	ColumnFailed int64
	Reopens      int64
	BytesRead    int64
}

// Snapshot returns the current counters
func (rm *ReadMetrics) Snapshot() Snapshot {
	rm.Mu.RLock()
	defer rm.Mu.RUnlock()
	return Snapshot{
		ColumnLoads:  rm.SuccessfulOps,
		ColumnFailed: rm.FailedOps,
		Reopens:      rm.Reopens,
		BytesRead:    rm.BytesRead,
	}
}
