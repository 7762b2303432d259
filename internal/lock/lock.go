// Package lock serializes harvest runs so two runs never interleave their
// registry and snapshot writes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
)

var ErrRunInProgress = errors.New("a harvest run is already in progress")

// Release gives the lock back. It is safe to call once.
type Release func(ctx context.Context) error

type Locker interface {
	// TryAcquire does not wait: a held lock yields ErrRunInProgress.
	TryAcquire(ctx context.Context) (Release, error)
}

func busy() error {
	return apperrors.Conflict("acquire run lock", ErrRunInProgress)
}

// ---- none ----

type Noop struct{}

func (Noop) TryAcquire(context.Context) (Release, error) {
	return func(context.Context) error { return nil }, nil
}

// ---- file ----

// File holds an advisory flock on a path, which only guards runs on one host.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) TryAcquire(context.Context) (Release, error) {
	fl := flock.New(f.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Sprintf("lock file %s", f.path), err)
	}
	if !ok {
		return nil, busy()
	}
	return func(context.Context) error { return fl.Unlock() }, nil
}

// ---- redis ----

// only the holder's token may delete the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// only the holder's token may extend the key
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis holds a SET NX key with a TTL. While held, the TTL is renewed every
// third of its length, so a run may outlast ttl; a crashed holder frees the
// key after at most ttl.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedis(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, key: key, ttl: ttl, log: logger.Named("lock")}
}

func (r *Redis) TryAcquire(ctx context.Context) (Release, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, apperrors.Unavailable("redis lock", err)
	}
	if !ok {
		return nil, busy()
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.renew(token, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		<-done
		return releaseScript.Run(ctx, r.client, []string{r.key}, token).Err()
	}, nil
}

func (r *Redis) renew(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(max(r.ttl/3, time.Millisecond))
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			n, err := renewScript.Run(context.Background(), r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int()
			if err != nil {
				r.log.Warn("renew run lock", zap.String("key", r.key), zap.Error(err))
				continue
			}
			if n == 0 {
				r.log.Error("run lock lost before release", zap.String("key", r.key))
				return
			}
		}
	}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
