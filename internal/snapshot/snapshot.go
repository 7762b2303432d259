// Package snapshot stores per-run record sets under timestamped keys and keeps
// the retained window plus the merged latest view.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
)

const (
	snapshotStem = "job_postings_"
	latestName   = "latest_jobs.json"

	// fixed width, so key order is chronological
	timeLayout = "2006-01-02_15-04-05"
)

// ErrUnsafePrune is returned when asked to prune a non-empty namespace down to nothing.
var ErrUnsafePrune = errors.New("refusing to prune: retained set is empty but snapshots exist")

type Store struct {
	objects objstore.Store
	prefix  string
}

func New(objects objstore.Store, prefix string) *Store {
	return &Store{objects: objects, prefix: prefix}
}

func (s *Store) Prefix() string { return s.prefix }

func (s *Store) KeyFor(ts time.Time) string {
	return s.prefix + snapshotStem + ts.UTC().Format(timeLayout) + ".json"
}

func (s *Store) LatestKey() string {
	return s.prefix + latestName
}

func (s *Store) Location(key string) string {
	return s.objects.Location(key)
}

// IsSnapshotKey reports whether key names a per-run snapshot under this prefix.
func (s *Store) IsSnapshotKey(key string) bool {
	return strings.HasPrefix(key, s.prefix+snapshotStem) && strings.HasSuffix(key, ".json")
}

// WriteSnapshot persists records under the key for ts. An empty record set
// writes nothing and reports written=false.
func (s *Store) WriteSnapshot(ctx context.Context, records []domain.JobRecord, ts time.Time) (string, bool, error) {
	if len(records) == 0 {
		return "", false, nil
	}
	key := s.KeyFor(ts)
	if err := s.put(ctx, key, records); err != nil {
		return "", false, err
	}
	return key, true, nil
}

func (s *Store) WriteLatest(ctx context.Context, records []domain.JobRecord) (string, error) {
	key := s.LatestKey()
	if records == nil {
		records = []domain.JobRecord{}
	}
	if err := s.put(ctx, key, records); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) ReadSnapshot(ctx context.Context, key string) ([]domain.JobRecord, error) {
	b, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var out []domain.JobRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) ReadLatest(ctx context.Context) ([]domain.JobRecord, error) {
	return s.ReadSnapshot(ctx, s.LatestKey())
}

// ListSnapshots returns every snapshot key, oldest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]string, error) {
	keys, err := s.objects.List(ctx, s.prefix+snapshotStem)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if s.IsSnapshotKey(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListRetained returns the n most recent snapshot keys, newest first.
func (s *Store) ListRetained(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	all, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]string, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Prune deletes every snapshot key not in retained and returns the deleted keys.
func (s *Store) Prune(ctx context.Context, retained []string) ([]string, error) {
	all, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	if len(retained) == 0 {
		return nil, ErrUnsafePrune
	}

	keep := make(map[string]struct{}, len(retained))
	for _, k := range retained {
		keep[k] = struct{}{}
	}
	var stale []string
	for _, k := range all {
		if _, ok := keep[k]; !ok {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}
	if err := s.objects.DeleteMany(ctx, stale); err != nil {
		return nil, fmt.Errorf("prune %d snapshots: %w", len(stale), err)
	}
	return stale, nil
}

func (s *Store) put(ctx context.Context, key string, records []domain.JobRecord) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.objects.Put(ctx, key, b, objstore.ContentTypeJSON); err != nil {
		return err
	}
	return nil
}
