package syncer

import (
	"sync"
	"time"
)

// Entity pass actions recorded in the run report.
const (
	actionInserted = "inserted"
	actionUpdated  = "updated"
	actionSkipped  = "skipped"
	actionFailed   = "failed"
)

// Counts tallies per-item outcomes of one entity pass.
type Counts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Total returns the number of items the pass looked at.
func (c Counts) Total() int {
	return c.Inserted + c.Updated + c.Skipped + c.Failed
}

// ItemError describes one item the synchronizer could not replicate. Item
// errors never abort a run; they are collected here and the run continues.
type ItemError struct {
	Entity   string `json:"entity"`
	SourceID string `json:"source_id"`
	Message  string `json:"message"`
}

// Report is the JSON document describing one synchronizer run. The file-copy
// pass appends from worker goroutines, so mutation goes through the mutex.
type Report struct {
	mu sync.Mutex

	RanAt      time.Time          `json:"ran_at"`
	DurationMS int64              `json:"duration_ms"`
	Entities   map[string]*Counts `json:"entities"`
	Errors     []ItemError        `json:"errors"`
}

func newReport(ranAt time.Time) *Report {
	return &Report{
		RanAt:    ranAt,
		Entities: map[string]*Counts{},
		Errors:   []ItemError{},
	}
}

func (r *Report) counts(entity string) *Counts {
	if _, ok := r.Entities[entity]; !ok {
		r.Entities[entity] = &Counts{}
	}
	return r.Entities[entity]
}

func (r *Report) recordInserted(entity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(entity).Inserted++
}

func (r *Report) recordUpdated(entity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(entity).Updated++
}

func (r *Report) recordSkipped(entity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(entity).Skipped++
}

func (r *Report) recordFailure(entity, sourceID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(entity).Failed++
	r.Errors = append(r.Errors, ItemError{
		Entity:   entity,
		SourceID: sourceID,
		Message:  err.Error(),
	})
}

// Failed reports whether any item error was recorded.
func (r *Report) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors) > 0
}
