// internal/config/config.go
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeObject     = "object"
	ModeRelational = "relational"

	BackendS3     = "s3"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	LockNone  = "none"
	LockFile  = "file"
	LockRedis = "redis"
)

type Config struct {
	App struct {
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"` // console | json
		HTTPAddr  string `yaml:"http_addr"`
	} `yaml:"app"`

	Source struct {
		BaseURL             string   `yaml:"base_url"`
		SearchPath          string   `yaml:"search_path"`
		DaysSinceUpdated    int      `yaml:"days_since_updated"`
		UserAgent           string   `yaml:"user_agent"`
		Label               string   `yaml:"label"`
		Queries             []string `yaml:"queries"`
		FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds"`
		RequestsPerSecond   float64  `yaml:"requests_per_second"`
		Burst               int      `yaml:"burst"`
		Concurrency         int      `yaml:"concurrency"`
	} `yaml:"source"`

	Storage struct {
		Mode           string `yaml:"mode"`    // object | relational
		Backend        string `yaml:"backend"` // s3 | sqlite | memory
		Bucket         string `yaml:"bucket"`
		Region         string `yaml:"region"`
		Endpoint       string `yaml:"endpoint"`
		UsePathStyle   bool   `yaml:"use_path_style"`
		AccessKeyID    string `yaml:"access_key_id"` // static key; empty uses the AWS default chain
		SQLitePath     string `yaml:"sqlite_path"`
		SnapshotPrefix string `yaml:"snapshot_prefix"`
		CompanyKey     string `yaml:"company_key"`
		Retention      int    `yaml:"retention"`
		TieBreak       string `yaml:"tie_break"` // newest | oldest
		DatabaseURL    string `yaml:"database_url"`
	} `yaml:"storage"`

	Lock struct {
		Backend    string `yaml:"backend"` // none | file | redis
		FilePath   string `yaml:"file_path"`
		RedisURL   string `yaml:"redis_url"`
		Key        string `yaml:"key"`
		TTLSeconds int    `yaml:"ttl_seconds"` // renewed while held; frees a crashed holder
	} `yaml:"lock"`

	Events struct {
		NATSURL string `yaml:"nats_url"`
		Subject string `yaml:"subject"`
	} `yaml:"events"`

	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
}

func Default() Config {
	var cfg Config
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"
	cfg.App.HTTPAddr = "127.0.0.1:38471"

	cfg.Source.BaseURL = "https://builtin.com"
	cfg.Source.SearchPath = "/jobs/remote"
	cfg.Source.DaysSinceUpdated = 1
	cfg.Source.UserAgent = "Mozilla/5.0"
	cfg.Source.Label = "BuiltIn"
	cfg.Source.Queries = []string{"data analyst", "analytics engineer"}
	cfg.Source.FetchTimeoutSeconds = 20
	cfg.Source.RequestsPerSecond = 1
	cfg.Source.Burst = 2
	cfg.Source.Concurrency = 1

	cfg.Storage.Mode = ModeObject
	cfg.Storage.Backend = BackendS3
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.SQLitePath = "harvest.db"
	cfg.Storage.SnapshotPrefix = "job_postings/builtin/"
	cfg.Storage.CompanyKey = "reference/company_table.json"
	cfg.Storage.Retention = 14
	cfg.Storage.TieBreak = "newest"

	cfg.Lock.Backend = LockFile
	cfg.Lock.FilePath = "harvest.lock"
	cfg.Lock.Key = "harvest:run-lock"
	cfg.Lock.TTLSeconds = 900

	cfg.Events.Subject = "harvest.runs"
	cfg.Schedule.Cron = "@every 24h"
	return cfg
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path means defaults plus environment only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return Normalize(cfg), nil
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.FetchTimeoutSeconds) * time.Second
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.Lock.TTLSeconds) * time.Second
}

// Normalize trims and dedupes the query list and lowercases enum-like fields.
func Normalize(cfg Config) Config {
	out := cfg

	seen := map[string]bool{}
	var qs []string
	for _, q := range cfg.Source.Queries {
		q = strings.Join(strings.Fields(q), " ")
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		qs = append(qs, q)
	}
	out.Source.Queries = qs

	out.Source.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Source.BaseURL), "/")
	out.Storage.Mode = strings.ToLower(strings.TrimSpace(cfg.Storage.Mode))
	out.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	out.Storage.TieBreak = strings.ToLower(strings.TrimSpace(cfg.Storage.TieBreak))
	out.Lock.Backend = strings.ToLower(strings.TrimSpace(cfg.Lock.Backend))
	if p := strings.TrimSpace(cfg.Storage.SnapshotPrefix); p != "" && !strings.HasSuffix(p, "/") {
		out.Storage.SnapshotPrefix = p + "/"
	}
	return out
}
