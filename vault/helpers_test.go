package vault

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testKDF keeps the memory-hard derivation cheap enough for unit tests.
var testKDF = Argon2id{Time: 1, Memory: 64, Threads: 1}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.pwd")
	return NewStore(path, append([]Option{WithKeyDeriver(testKDF)}, opts...)...)
}

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := newTestStore(t).Create([]byte("correct-horse"))
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func mustAdd(t *testing.T, v *Vault, service, username, secret string) Entry {
	t.Helper()
	e, err := v.Add(Entry{Service: service, Username: username, Secret: []byte(secret)})
	require.NoError(t, err)
	return e
}
