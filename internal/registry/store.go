package registry

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
)

// Store loads and saves the company table as a single object.
type Store struct {
	objects objstore.Store
	key     string
	log     *zap.Logger
}

func NewStore(objects objstore.Store, key string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{objects: objects, key: key, log: logger.Named("registry")}
}

// Load returns an empty Registry when the table does not exist yet.
func (s *Store) Load(ctx context.Context) (*Registry, error) {
	b, err := s.objects.Get(ctx, s.key)
	if errors.Is(err, objstore.ErrNotFound) {
		s.log.Info("no company table yet, starting empty", zap.String("key", s.key))
		return New(), nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("load company table", err)
	}
	r, err := Decode(b)
	if err != nil {
		return nil, err
	}
	s.log.Debug("company table loaded", zap.Int("companies", r.Len()))
	return r, nil
}

// Save writes r back only when it gained companies. It reports whether it wrote.
func (s *Store) Save(ctx context.Context, r *Registry) (bool, error) {
	added := r.Added()
	if len(added) == 0 {
		return false, nil
	}
	b, err := r.Encode()
	if err != nil {
		return false, apperrors.Internal("encode company table", err)
	}
	if err := s.objects.Put(ctx, s.key, b, objstore.ContentTypeJSON); err != nil {
		return false, apperrors.Unavailable("save company table", err)
	}
	r.markSaved()
	s.log.Info("company table saved", zap.Int("companies", r.Len()), zap.Strings("added", added))
	return true, nil
}
