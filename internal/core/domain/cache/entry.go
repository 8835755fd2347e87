package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a single cached value. Writes replace entries wholesale.
type Entry struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

// NewEntry builds an entry that expires ttl after now.
func NewEntry(value []byte, now time.Time, ttl time.Duration) Entry {
	return Entry{ExpiresAt: now.Add(ttl), Value: cloneBytes(value)}
}

// Live reports whether the entry is still readable at now.
// An entry expiring exactly at now is already expired.
func (e Entry) Live(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Table maps keys to entries.
type Table map[string]Entry

// Lookup returns the value for key if it is present and live.
func (t Table) Lookup(key string, now time.Time) ([]byte, bool) {
	e, ok := t[key]
	if !ok || !e.Live(now) {
		return nil, false
	}
	return cloneBytes(e.Value), true
}

// Compact returns a copy of t holding only the entries live at now.
func (t Table) Compact(now time.Time) Table {
	out := make(Table, len(t))
	for k, e := range t {
		if e.Live(now) {
			out[k] = e
		}
	}
	return out
}

// Clone returns a shallow copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, e := range t {
		out[k] = e
	}
	return out
}

// Encode serializes the table into the blob written to backing stores.
func Encode(t Table) ([]byte, error) {
	if t == nil {
		t = Table{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode cache table: %w", err)
	}
	return b, nil
}

// Decode parses a blob produced by Encode. An empty blob is an empty table.
func Decode(b []byte) (Table, error) {
	if len(b) == 0 {
		return Table{}, nil
	}
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode cache table: %w", err)
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
