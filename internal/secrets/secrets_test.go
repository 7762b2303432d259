package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func env(m map[string]string) Lookup {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestS3SecretKeyringBeforeEnv(t *testing.T) {
	keyring.MockInit()

	v, err := S3SecretKey("AKIA1", env(map[string]string{EnvS3SecretKey: "from-env"}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	require.NoError(t, SetS3SecretKey("AKIA1", "from-keyring"))
	v, err = S3SecretKey("AKIA1", env(map[string]string{EnvS3SecretKey: "from-env"}))
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", v)

	require.NoError(t, DeleteS3SecretKey("AKIA1"))
	_, err = S3SecretKey("AKIA1", env(nil))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDatabaseURL(t *testing.T) {
	keyring.MockInit()

	_, err := DatabaseURL(nil)
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := DatabaseURL(env(map[string]string{EnvDatabaseURL: " postgres://u@h/db "}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u@h/db", v)

	require.NoError(t, SetDatabaseURL("postgres://k@h/db"))
	v, err = DatabaseURL(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://k@h/db", v)
}

func TestSetRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetDatabaseURL(" "))
	assert.Error(t, SetS3SecretKey("", "x"))
}
