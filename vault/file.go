package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// fileHeader is the unencrypted prefix of a vault file. Its encoded form is
// also the associated data of the AEAD, so it cannot be altered undetected.
type fileHeader struct {
	Version byte
	Salt    [SaltLen]byte
	Nonce   [NonceLen]byte
}

func encodeHeader(h fileHeader) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, headerLen))
	buf.WriteString(Magic)
	buf.WriteByte(h.Version)
	buf.Write(h.Salt[:])
	buf.Write(h.Nonce[:])
	return buf.Bytes()
}

// decodeHeader splits raw into its header and the sealed payload
// (ciphertext followed by the tag).
func decodeHeader(raw []byte) (fileHeader, []byte, error) {
	var h fileHeader
	if len(raw) < headerLen+TagLen {
		return h, nil, fmt.Errorf("%w: %d bytes is shorter than the minimum %d", ErrCorruptVault, len(raw), headerLen+TagLen)
	}
	if string(raw[:len(Magic)]) != Magic {
		return h, nil, fmt.Errorf("%w: bad magic", ErrCorruptVault)
	}

	off := len(Magic)
	h.Version = raw[off]
	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptVault, h.Version)
	}
	off++
	off += copy(h.Salt[:], raw[off:off+SaltLen])
	off += copy(h.Nonce[:], raw[off:off+NonceLen])

	return h, raw[off:], nil
}

// atomicWriteFile replaces path with data. The data goes to a temporary file
// in the same directory which is synced and renamed over path, so readers
// see either the old or the new content.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".pwdeck-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
