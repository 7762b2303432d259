package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

func Validate(cfg Config) error {
	var errs []string

	if len(cfg.Source.Queries) == 0 {
		errs = append(errs, "source.queries must have at least 1 query")
	}
	if u, err := url.Parse(cfg.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("source.base_url %q is not an absolute url", cfg.Source.BaseURL))
	}
	if cfg.Source.FetchTimeoutSeconds <= 0 {
		errs = append(errs, "source.fetch_timeout_seconds must be > 0")
	}
	if cfg.Source.RequestsPerSecond <= 0 {
		errs = append(errs, "source.requests_per_second must be > 0")
	}
	if cfg.Source.Burst <= 0 {
		errs = append(errs, "source.burst must be > 0")
	}
	if cfg.Source.Concurrency <= 0 {
		errs = append(errs, "source.concurrency must be > 0")
	}
	if strings.TrimSpace(cfg.Source.Label) == "" {
		errs = append(errs, "source.label is required")
	}

	switch cfg.Storage.Mode {
	case ModeObject:
		switch cfg.Storage.Backend {
		case BackendS3:
			if strings.TrimSpace(cfg.Storage.Bucket) == "" {
				errs = append(errs, "storage.bucket is required when storage.backend=s3")
			}
		case BackendSQLite:
			if strings.TrimSpace(cfg.Storage.SQLitePath) == "" {
				errs = append(errs, "storage.sqlite_path is required when storage.backend=sqlite")
			}
		case BackendMemory:
		default:
			errs = append(errs, fmt.Sprintf("storage.backend %q must be s3, sqlite or memory", cfg.Storage.Backend))
		}
		if cfg.Storage.Retention <= 0 {
			errs = append(errs, "storage.retention must be > 0")
		}
		if cfg.Storage.SnapshotPrefix == "" {
			errs = append(errs, "storage.snapshot_prefix is required")
		}
		if cfg.Storage.CompanyKey == "" {
			errs = append(errs, "storage.company_key is required")
		}
		if strings.HasPrefix(cfg.Storage.CompanyKey, cfg.Storage.SnapshotPrefix) {
			errs = append(errs, "storage.company_key must live outside storage.snapshot_prefix")
		}
		if cfg.Storage.TieBreak != "newest" && cfg.Storage.TieBreak != "oldest" {
			errs = append(errs, fmt.Sprintf("storage.tie_break %q must be newest or oldest", cfg.Storage.TieBreak))
		}
	case ModeRelational:
		// database url may also come from the keychain, checked at connect time
	default:
		errs = append(errs, fmt.Sprintf("storage.mode %q must be object or relational", cfg.Storage.Mode))
	}

	switch cfg.Lock.Backend {
	case LockNone:
	case LockFile:
		if strings.TrimSpace(cfg.Lock.FilePath) == "" {
			errs = append(errs, "lock.file_path is required when lock.backend=file")
		}
	case LockRedis:
		if strings.TrimSpace(cfg.Lock.RedisURL) == "" {
			errs = append(errs, "lock.redis_url is required when lock.backend=redis")
		}
		if cfg.Lock.TTLSeconds <= 0 {
			errs = append(errs, "lock.ttl_seconds must be > 0")
		}
	default:
		errs = append(errs, fmt.Sprintf("lock.backend %q must be none, file or redis", cfg.Lock.Backend))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
