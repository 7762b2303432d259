// Package registry maps employer display names to stable integer ids.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
)

type Entry struct {
	ID int64 `json:"id"`
}

// Registry is the in-memory company table for one run. Ids are never reused
// or changed once assigned.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
	maxID   int64
	added   []string
}

func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Decode parses the persisted {"name": {"id": n}} table.
func Decode(b []byte) (*Registry, error) {
	r := New()
	if len(bytes.TrimSpace(b)) == 0 {
		return r, nil
	}
	var raw map[string]Entry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, apperrors.InvalidInput("decode company table", err)
	}
	for name, e := range raw {
		if e.ID <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("company %q has invalid id %d", name, e.ID), nil)
		}
		r.entries[name] = e
		r.maxID = max(r.maxID, e.ID)
	}
	return r, nil
}

// Resolve returns the id for name, assigning the next one when name is new.
func (r *Registry) Resolve(_ context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, apperrors.InvalidInput("empty company name", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok {
		return e.ID, nil
	}
	// size+1, but never at or below an id already handed out
	id := max(int64(len(r.entries)), r.maxID) + 1
	r.entries[name] = Entry{ID: id}
	r.maxID = id
	r.added = append(r.added, name)
	return id, nil
}

func (r *Registry) Lookup(name string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return e.ID, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Added lists names first seen by this Registry, in discovery order.
func (r *Registry) Added() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.added...)
}

func (r *Registry) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.added) > 0
}

// Encode writes the table as indented JSON ordered by id.
func (r *Registry) Encode() ([]byte, error) {
	r.mu.Lock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return r.entries[names[i]].ID < r.entries[names[j]].ID })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		buf.Write(k)
		fmt.Fprintf(&buf, `:{"id":%d}`, r.entries[n].ID)
	}
	buf.WriteByte('}')
	r.mu.Unlock()

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (r *Registry) markSaved() {
	r.mu.Lock()
	r.added = nil
	r.mu.Unlock()
}
