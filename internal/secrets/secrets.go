package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the harvester's secrets in the OS keychain.
	KeyringService = "jobharvest"

	EnvS3SecretKey    = "AWS_SECRET_ACCESS_KEY"
	EnvS3SessionToken = "AWS_SESSION_TOKEN"
	EnvDatabaseURL    = "DATABASE_URL"
	databaseAccount   = "jobharvest:postgres"
)

var ErrNotFound = errors.New("secret not found")

// Lookup reads an environment variable; os.LookupEnv in production.
type Lookup func(string) (string, bool)

func S3Account(accessKeyID string) string {
	return fmt.Sprintf("jobharvest:s3:%s", accessKeyID)
}

// S3SecretKey returns the secret for accessKeyID: keyring first, then env.
func S3SecretKey(accessKeyID string, env Lookup) (string, error) {
	return get(S3Account(accessKeyID), strings.TrimSpace(accessKeyID) != "", EnvS3SecretKey, env)
}

// S3SessionToken returns the optional session token paired with a static key.
// Temporary credentials carry one; long-lived keys do not.
func S3SessionToken(env Lookup) string {
	if env == nil {
		return ""
	}
	v, _ := env(EnvS3SessionToken)
	return strings.TrimSpace(v)
}

// DatabaseURL returns the Postgres URL: keyring first, then env.
func DatabaseURL(env Lookup) (string, error) {
	return get(databaseAccount, true, EnvDatabaseURL, env)
}

func SetS3SecretKey(accessKeyID, secret string) error {
	if strings.TrimSpace(accessKeyID) == "" {
		return errors.New("access key id is empty")
	}
	return set(S3Account(accessKeyID), secret)
}

func SetDatabaseURL(url string) error {
	return set(databaseAccount, url)
}

func DeleteS3SecretKey(accessKeyID string) error {
	if strings.TrimSpace(accessKeyID) == "" {
		return errors.New("access key id is empty")
	}
	return keyring.Delete(KeyringService, S3Account(accessKeyID))
}

func get(account string, useKeyring bool, envKey string, env Lookup) (string, error) {
	if useKeyring {
		v, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	if env != nil {
		if v, ok := env(envKey); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("%s: %w (set it in keychain or via %s)", account, ErrNotFound, envKey)
}

func set(account, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}
