package vault

import (
	"fmt"

	"github.com/google/uuid"
)

// Vault is an open, decrypted vault session. It holds the derived key and
// the advisory lock until Close. Mutations stay in memory until Commit.
type Vault struct {
	store   *Store
	lock    *fileLock
	version byte
	salt    [SaltLen]byte
	nonce   [NonceLen]byte
	key     []byte
	entries []Entry
	dirty   bool
	closed  bool
}

func (v *Vault) Path() string        { return v.store.path }
func (v *Vault) FormatVersion() int  { return int(v.version) }
func (v *Vault) KDF() KeyDeriver     { return v.store.kdf }
func (v *Vault) Dirty() bool         { return v.dirty }
func (v *Vault) Len() int            { return len(v.entries) }
func (v *Vault) Salt() [SaltLen]byte { return v.salt }

// Add appends e. The vault is left untouched when e is invalid or its
// service/username pair is already stored.
func (v *Vault) Add(e Entry) (Entry, error) {
	if v.closed {
		return Entry{}, ErrClosed
	}
	if e.Service == "" || e.Username == "" {
		return Entry{}, ErrInvalidEntry
	}
	if len(e.Secret) == 0 {
		return Entry{}, ErrEmptySecret
	}
	if v.index(e.Service, e.Username) >= 0 {
		return Entry{}, fmt.Errorf("%w: %s/%s", ErrDuplicateEntry, e.Service, e.Username)
	}

	e = e.clone()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	v.entries = append(v.entries, e)
	v.dirty = true
	return e.clone(), nil
}

// Find returns the entries for service, narrowed to username when it is not
// empty. No match is an empty result, not an error; so is a closed session.
func (v *Vault) Find(service, username string) []Entry {
	var out []Entry
	for _, e := range v.entries {
		if e.Service != service {
			continue
		}
		if username != "" && e.Username != username {
			continue
		}
		out = append(out, e.clone())
	}
	return out
}

// Get looks an entry up by its id.
func (v *Vault) Get(id string) (Entry, error) {
	if v.closed {
		return Entry{}, ErrClosed
	}
	for _, e := range v.entries {
		if e.ID == id {
			return e.clone(), nil
		}
	}
	return Entry{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

func (v *Vault) Remove(service, username string) error {
	if v.closed {
		return ErrClosed
	}
	i := v.index(service, username)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, service, username)
	}

	Zero(v.entries[i].Secret)
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	v.dirty = true
	return nil
}

// List returns copies of all entries in insertion order, or nothing once the
// session is closed.
func (v *Vault) List() []Entry {
	out := make([]Entry, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.clone()
	}
	return out
}

// Commit writes pending changes. A clean vault is not rewritten, and a failed
// write keeps the vault dirty so Commit can be retried.
func (v *Vault) Commit() error {
	if v.closed {
		return ErrClosed
	}
	if !v.dirty {
		return nil
	}
	if err := v.store.save(v); err != nil {
		return err
	}
	v.dirty = false
	return nil
}

// ChangePassphrase re-keys the vault under a fresh salt. The file keeps the
// old passphrase until the next Commit.
func (v *Vault) ChangePassphrase(passphrase []byte) error {
	if v.closed {
		return ErrClosed
	}
	if len(passphrase) == 0 {
		return ErrEmptyPassphrase
	}

	salt, err := v.store.entropy.Bytes(SaltLen)
	if err != nil {
		return err
	}
	key, err := v.store.kdf.DeriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	Zero(v.key)
	v.key = key
	copy(v.salt[:], salt)
	v.dirty = true
	return nil
}

// Close wipes the key and secrets and releases the lock. Uncommitted changes
// are discarded. Close is safe to call more than once.
func (v *Vault) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true

	Zero(v.key)
	v.key = nil
	wipeEntries(v.entries)
	v.entries = nil
	v.dirty = false

	v.store.log.Debug("vault closed", "path", v.store.path)
	return v.lock.release()
}

func (v *Vault) index(service, username string) int {
	for i, e := range v.entries {
		if e.matches(service, username) {
			return i
		}
	}
	return -1
}
