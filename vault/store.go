package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fahmaliyi/pwdeck/entropy"
)

const (
	filePerm = 0600
	dirPerm  = 0700
)

var errForeignSession = errors.New("vault: session belongs to another store")

// Store reads and writes one vault file.
type Store struct {
	path    string
	kdf     KeyDeriver
	entropy *entropy.Source
	log     *log.Logger
}

type Option func(*Store)

// WithKeyDeriver replaces the default Argon2id parameters. Files must be
// opened with the deriver that wrote them.
func WithKeyDeriver(k KeyDeriver) Option {
	return func(s *Store) { s.kdf = k }
}

func WithEntropy(src *entropy.Source) Option {
	return func(s *Store) { s.entropy = src }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		kdf:     DefaultKDF(),
		entropy: entropy.Default(),
		log:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string { return s.path }

func (s *Store) lockPath() string { return s.path + ".lock" }

// Exists reports whether the vault file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Create writes a new empty vault protected by passphrase and returns it
// open. The caller must Close the returned vault.
func (s *Store) Create(passphrase []byte) (*Vault, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return nil, fmt.Errorf("vault: create directory: %w", err)
	}

	lock, err := acquireLock(s.lockPath())
	if err != nil {
		return nil, err
	}

	v, err := s.create(passphrase, lock)
	if err != nil {
		lock.release()
		return nil, err
	}
	s.log.Debug("vault created", "path", s.path, "kdf", s.kdf.Name())
	return v, nil
}

func (s *Store) create(passphrase []byte, lock *fileLock) (*Vault, error) {
	if s.Exists() {
		return nil, ErrVaultExists
	}

	salt, err := s.entropy.Bytes(SaltLen)
	if err != nil {
		return nil, err
	}
	key, err := s.kdf.DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	v := &Vault{store: s, lock: lock, version: Version, key: key}
	copy(v.salt[:], salt)

	// the first write persists the empty entry list
	if err := s.save(v); err != nil {
		Zero(key)
		return nil, err
	}
	return v, nil
}

// Open reads the vault and decrypts it with passphrase. The caller must
// Close the returned vault.
func (s *Store) Open(passphrase []byte) (*Vault, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if !s.Exists() {
		return nil, fmt.Errorf("vault: open %s: %w", s.path, fs.ErrNotExist)
	}

	lock, err := acquireLock(s.lockPath())
	if err != nil {
		return nil, err
	}

	v, err := s.open(passphrase, lock)
	if err != nil {
		lock.release()
		return nil, err
	}
	s.log.Debug("vault opened", "path", s.path, "entries", len(v.entries))
	return v, nil
}

func (s *Store) open(passphrase []byte, lock *fileLock) (*Vault, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", s.path, err)
	}

	header, sealed, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}

	key, err := s.kdf.DeriveKey(passphrase, header.Salt[:])
	if err != nil {
		return nil, err
	}

	pt, err := decrypt(key, header.Nonce[:], sealed, raw[:headerLen])
	if err != nil {
		Zero(key)
		if errors.Is(err, ErrWrongPassphrase) {
			s.log.Debug("authentication failed", "path", s.path)
		}
		return nil, err
	}
	defer Zero(pt)

	var data plaintextVault
	if err := json.Unmarshal(pt, &data); err != nil {
		Zero(key)
		return nil, fmt.Errorf("%w: decode entries: %v", ErrCorruptVault, err)
	}
	if err := checkUnique(data.Entries); err != nil {
		Zero(key)
		wipeEntries(data.Entries)
		return nil, err
	}

	return &Vault{
		store:   s,
		lock:    lock,
		version: header.Version,
		salt:    header.Salt,
		nonce:   header.Nonce,
		key:     key,
		entries: data.Entries,
	}, nil
}

// save encrypts the full entry list of v under a fresh nonce and atomically
// replaces the file. v is only updated once the write has succeeded.
func (s *Store) save(v *Vault) error {
	if v.closed {
		return ErrClosed
	}
	if v.store != s {
		return errForeignSession
	}

	nonce, err := s.freshNonce(v.nonce)
	if err != nil {
		return err
	}

	entries := v.entries
	if entries == nil {
		entries = []Entry{}
	}
	pt, err := json.Marshal(plaintextVault{Entries: entries})
	if err != nil {
		return fmt.Errorf("vault: encode entries: %w", err)
	}
	defer Zero(pt)

	h := fileHeader{Version: v.version, Salt: v.salt, Nonce: nonce}
	hdr := encodeHeader(h)
	sealed, err := encrypt(v.key, nonce[:], pt, hdr)
	if err != nil {
		return fmt.Errorf("vault: encrypt: %w", err)
	}

	raw := append(hdr, sealed...)
	if err := atomicWriteFile(s.path, raw, filePerm); err != nil {
		return fmt.Errorf("vault: write %s: %w", s.path, err)
	}

	v.nonce = nonce
	s.log.Debug("vault saved", "path", s.path, "entries", len(v.entries))
	return nil
}

// freshNonce draws a random nonce that differs from prev.
func (s *Store) freshNonce(prev [NonceLen]byte) ([NonceLen]byte, error) {
	var nonce [NonceLen]byte
	for {
		b, err := s.entropy.Bytes(NonceLen)
		if err != nil {
			return nonce, err
		}
		copy(nonce[:], b)
		if !bytes.Equal(nonce[:], prev[:]) {
			return nonce, nil
		}
	}
}

func checkUnique(entries []Entry) error {
	type key struct{ service, username string }
	seen := make(map[key]struct{}, len(entries))
	for _, e := range entries {
		k := key{e.Service, e.Username}
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: duplicate entry %s/%s", ErrCorruptVault, e.Service, e.Username)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func wipeEntries(entries []Entry) {
	for i := range entries {
		Zero(entries[i].Secret)
	}
}
