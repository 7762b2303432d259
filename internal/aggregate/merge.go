// Package aggregate merges retained snapshots into one record per URL.
package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
)

// Policy picks the winner when several snapshots hold the same URL.
type Policy string

const (
	// PolicyNewest keeps the record from the most recent snapshot.
	PolicyNewest Policy = "newest"
	// PolicyOldest lets later keys overwrite earlier ones, so with keys listed
	// newest first the oldest observation survives.
	PolicyOldest Policy = "oldest"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyNewest:
		return PolicyNewest, nil
	case PolicyOldest:
		return PolicyOldest, nil
	default:
		return "", fmt.Errorf("unknown tie-break policy %q", s)
	}
}

type Reader interface {
	ReadSnapshot(ctx context.Context, key string) ([]domain.JobRecord, error)
}

// Merge reads keys (newest first) and returns one record per URL in
// first-insertion order. Repeated keys are read once. Within a single
// snapshot the last record for a URL wins under either policy.
func Merge(ctx context.Context, r Reader, keys []string, policy Policy) ([]domain.JobRecord, error) {
	var (
		out   []domain.JobRecord
		index = make(map[string]int)
		// snapshot position that supplied out[i]
		from  = make(map[string]int)
		seen  = make(map[string]struct{}, len(keys))
	)

	for pos, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := r.ReadSnapshot(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("merge: read %s: %w", key, err)
		}

		for _, rec := range records {
			if rec.URL == "" {
				continue
			}
			i, ok := index[rec.URL]
			switch {
			case !ok:
				index[rec.URL] = len(out)
				from[rec.URL] = pos
				out = append(out, rec)
			case policy == PolicyOldest || from[rec.URL] == pos:
				out[i] = rec
				from[rec.URL] = pos
			}
		}
	}
	return out, nil
}
