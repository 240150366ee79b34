package vault

import "errors"

const (
	Magic   = "PWDK"
	Version = 0x01

	SaltLen  = 16
	NonceLen = 12
	TagLen   = 16
	KeyLen   = 32

	headerLen = len(Magic) + 1 + SaltLen + NonceLen
)

var (
	ErrEmptyPassphrase = errors.New("vault: empty passphrase")
	ErrWrongPassphrase = errors.New("vault: wrong passphrase")
	ErrCorruptVault    = errors.New("vault: corrupt file")
	ErrVaultLocked     = errors.New("vault: locked by another process")
	ErrVaultExists     = errors.New("vault: file already exists")
	ErrDuplicateEntry  = errors.New("vault: duplicate entry")
	ErrNotFound        = errors.New("vault: entry not found")
	ErrInvalidEntry    = errors.New("vault: service and username are required")
	ErrEmptySecret     = errors.New("vault: empty secret")
	ErrClosed          = errors.New("vault: closed")
)

// Entry is one stored credential. Service and Username together identify it.
type Entry struct {
	ID       string `json:"id"`
	Service  string `json:"service"`
	Username string `json:"username"`
	Secret   []byte `json:"secret"`
}

func (e Entry) clone() Entry {
	e.Secret = append([]byte(nil), e.Secret...)
	return e
}

func (e Entry) matches(service, username string) bool {
	return e.Service == service && e.Username == username
}

type plaintextVault struct {
	Entries []Entry `json:"entries"`
}
