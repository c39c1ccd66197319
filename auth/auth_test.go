package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticKeys(t *testing.T) {
	ctx := context.Background()
	a := NewStaticKeys("alpha", " beta ", "")
	assert.Equal(t, 2, a.Len())

	require.NoError(t, a.Authenticate(ctx, "alpha"))
	require.NoError(t, a.Authenticate(ctx, "beta"))
	assert.ErrorIs(t, a.Authenticate(ctx, "gamma"), ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate(ctx, ""), ErrUnauthorized)

	assert.ErrorIs(t, NewStaticKeys().Authenticate(ctx, "alpha"), ErrUnauthorized)
	assert.ErrorIs(t, Deny{}.Authenticate(ctx, "alpha"), ErrUnauthorized)
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae", HashKey("foo"))
}

func TestLoadKeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys")
	require.NoError(t, os.WriteFile(path, []byte("# rebuild keys\nalpha\n\n  beta  \n"), 0o600))

	keys, err := LoadKeysFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, keys)

	_, err = LoadKeysFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
