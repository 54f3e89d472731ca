// Package dataset holds the ordered challenge collections and their
// insert-or-replace-by-key semantics.
package dataset

import (
	"sync"

	"challenge-harvester/internal/models"
)

// Upsert returns rows with rec applied: the first row sharing rec's key is
// replaced whole, otherwise rec is appended. rows is not modified.
func Upsert(rows []models.Challenge, rec models.Challenge) ([]models.Challenge, bool) {
	out := make([]models.Challenge, len(rows), len(rows)+1)
	copy(out, rows)
	if i := IndexOf(rows, rec.Key()); i >= 0 {
		out[i] = rec
		return out, true
	}
	return append(out, rec), false
}

// IndexOf returns the position of the first row with key, or -1.
func IndexOf(rows []models.Challenge, key string) int {
	for i, r := range rows {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

// Dataset is one section's collection of records, in insertion order.
type Dataset struct {
	Name  string
	Sheet string

	mu    sync.RWMutex
	rows  []models.Challenge
	guard Guard
}

func New(name, sheet string) *Dataset {
	return &Dataset{Name: name, Sheet: sheet, guard: Guard{section: name}}
}

// Upsert commits rec and reports whether an existing row was replaced.
func (d *Dataset) Upsert(rec models.Challenge) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	var replaced bool
	d.rows, replaced = Upsert(d.rows, rec)
	return replaced
}

func (d *Dataset) Find(key string) (models.Challenge, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := IndexOf(d.rows, key); i >= 0 {
		return d.rows[i], true
	}
	return models.Challenge{}, false
}

// Rows returns a copy of the current rows.
func (d *Dataset) Rows() []models.Challenge {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Challenge, len(d.rows))
	copy(out, d.rows)
	return out
}

func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rows)
}

// Replace swaps the whole collection, e.g. after a fresh batch analysis.
func (d *Dataset) Replace(rows []models.Challenge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = append([]models.Challenge(nil), rows...)
}

// Acquire takes the dataset's active-operation token for op.
// The returned release must be called on every exit path.
func (d *Dataset) Acquire(op string) (func(), error) {
	return d.guard.Acquire(op)
}

// Holder returns the operation currently holding the token, or "".
func (d *Dataset) Holder() string {
	return d.guard.Holder()
}
