// Package vault stores credential entries in a single encrypted file.
//
// File layout (version 1):
//
//	MAGIC "PWDK" (4) | VERSION (1) | SALT (16) | NONCE (12) | CIPHERTEXT | TAG (16)
//
// The key is derived from the master passphrase and the salt with Argon2id
// (t=3, m=64 MiB, p=1) unless another KeyDeriver is configured. The entry
// list is JSON encoded and sealed with ChaCha20-Poly1305; the 33 header
// bytes are authenticated as associated data. Every save draws a new nonce
// and replaces the file atomically.
//
// A Store opens or creates a file and hands out a Vault session. The session
// holds an exclusive advisory lock on "<path>.lock" until Close, keeps
// changes in memory until Commit, and wipes key and secrets on Close.
package vault
