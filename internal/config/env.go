package config

import (
	"strconv"
	"strings"
)

// ApplyEnv overrides file values with environment variables when they are set.
// Unparseable numeric values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("HARVEST_LOG_LEVEL", &cfg.App.LogLevel)
	str("HARVEST_LOG_FORMAT", &cfg.App.LogFormat)
	str("HARVEST_HTTP_ADDR", &cfg.App.HTTPAddr)

	if v, ok := lookup("HARVEST_QUERIES"); ok && strings.TrimSpace(v) != "" {
		cfg.Source.Queries = strings.Split(v, ",")
	}

	str("HARVEST_STORAGE_MODE", &cfg.Storage.Mode)
	str("HARVEST_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("S3_BUCKET_NAME", &cfg.Storage.Bucket)
	str("AWS_REGION", &cfg.Storage.Region)
	str("S3_ENDPOINT", &cfg.Storage.Endpoint)
	flag("S3_FORCE_PATH_STYLE", &cfg.Storage.UsePathStyle)
	// AWS_ACCESS_KEY_ID is left to the SDK's default chain, which also
	// picks up AWS_SESSION_TOKEN for temporary credentials.
	str("HARVEST_SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("S3_SUBFOLDER", &cfg.Storage.SnapshotPrefix)
	str("COMPANY_FILE_PATH", &cfg.Storage.CompanyKey)
	num("RETENTION_RUNS", &cfg.Storage.Retention)
	str("HARVEST_TIE_BREAK", &cfg.Storage.TieBreak)
	str("DATABASE_URL", &cfg.Storage.DatabaseURL)

	str("HARVEST_LOCK_BACKEND", &cfg.Lock.Backend)
	str("REDIS_URL", &cfg.Lock.RedisURL)
	str("NATS_URL", &cfg.Events.NATSURL)
	str("HARVEST_CRON", &cfg.Schedule.Cron)
}
