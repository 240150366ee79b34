package vault

import (
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// encrypt encrypts plaintext under key and nonce. The result is ciphertext
// followed by the TagLen-byte tag.
func encrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// decrypt verifies and decrypts sealed. Any failure is ErrWrongPassphrase and
// no plaintext is returned.
func decrypt(key, nonce, sealed, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
