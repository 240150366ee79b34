// Package entropy wraps a cryptographically secure random source and derives
// unbiased indices from it.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
)

var (
	ErrUnavailable  = errors.New("entropy: random source unavailable")
	ErrInvalidBound = errors.New("entropy: bound must be at least 1")
)

// Source produces random bytes and uniform indices from an underlying reader.
type Source struct {
	r io.Reader
}

// New returns a Source reading from r. A nil reader selects crypto/rand.
func New(r io.Reader) *Source {
	if r == nil {
		r = rand.Reader
	}
	return &Source{r: r}
}

// Default returns a Source backed by the operating system CSPRNG.
func Default() *Source { return New(nil) }

// Bytes returns n random bytes. A failed or short read is ErrUnavailable;
// there is no fallback source.
func (s *Source) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidBound
	}
	b := make([]byte, n)
	if err := s.fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Source) fill(b []byte) error {
	if _, err := io.ReadFull(s.r, b); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Index returns a uniformly distributed integer in [0, bound).
//
// Candidates are drawn with just enough bytes to cover bound-1, masked to its
// bit length, and rejected when they fall outside the range. Each attempt
// succeeds with probability above one half, so the loop terminates quickly.
func (s *Source) Index(bound int) (int, error) {
	if bound < 1 {
		return 0, ErrInvalidBound
	}
	if bound == 1 {
		return 0, nil
	}

	max := uint64(bound - 1)
	nbits := bits.Len64(max)
	nbytes := (nbits + 7) / 8
	mask := uint64(1)<<nbits - 1
	if nbits == 64 {
		mask = ^uint64(0)
	}

	var buf [8]byte
	for {
		if err := s.fill(buf[:nbytes]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(buf[:]) & mask
		if v <= max {
			return int(v), nil
		}
	}
}
