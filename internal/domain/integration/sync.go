package integration

import (
	"time"
)

// SyncStatus is the outcome of a sync run
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusPartial SyncStatus = "PARTIAL"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// SyncFailure describes one item that failed to sync
type SyncFailure struct {
	Reference string `json:"reference"`
	Error     string `json:"error"`
}

// SyncResult summarises a sync run
type SyncResult struct {
	Kind         SyncKind      `json:"kind"`
	Status       SyncStatus    `json:"status"`
	TotalCount   int           `json:"total_count"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	FailedItems  []SyncFailure `json:"failed_items,omitempty"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// NewSyncResult starts a result for a sync kind
func NewSyncResult(kind SyncKind) *SyncResult {
	return &SyncResult{Kind: kind, StartedAt: time.Now(), FailedItems: []SyncFailure{}}
}

// Succeed records one successful item
func (r *SyncResult) Succeed() {
	r.TotalCount++
	r.SuccessCount++
}

// Fail records one failed item
func (r *SyncResult) Fail(reference string, err error) {
	r.TotalCount++
	r.FailedCount++
	r.FailedItems = append(r.FailedItems, SyncFailure{Reference: reference, Error: err.Error()})
}

// Abort marks the whole run as failed
func (r *SyncResult) Abort(err error) *SyncResult {
	r.Status = SyncStatusFailed
	r.Error = err.Error()
	r.FinishedAt = time.Now()
	return r
}

// Finish derives the status from the counts
func (r *SyncResult) Finish() *SyncResult {
	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.SuccessCount == 0:
		r.Status = SyncStatusFailed
		if r.Error == "" {
			r.Error = "all items failed"
		}
	default:
		r.Status = SyncStatusPartial
	}
	r.FinishedAt = time.Now()
	return r
}
