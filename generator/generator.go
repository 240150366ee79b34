// Package generator builds passwords from uniform random characters or from
// diceware word selection.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fahmaliyi/pwdeck/entropy"
)

const (
	DefaultRandomSize   = 25
	DefaultDicewareSize = 5

	// Alphabet is the character set for random mode.
	Alphabet = "abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789" +
		"!#$%&*+-_./:=?~`"

	wordSeparator = " "
)

var (
	ErrInvalidSize   = errors.New("generator: size must be at least 1")
	ErrEmptyWordlist = errors.New("generator: wordlist is empty")
	ErrDuplicateWord = errors.New("generator: wordlist contains duplicate words")
	ErrUnknownMode   = errors.New("generator: unknown mode")
)

type Mode int

const (
	Random Mode = iota
	Diceware
)

func (m Mode) String() string {
	switch m {
	case Random:
		return "random"
	case Diceware:
		return "diceware"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a CLI name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random", "":
		return Random, nil
	case "diceware":
		return Diceware, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// DefaultSize is the size used when the caller does not pick one.
func DefaultSize(m Mode) int {
	if m == Diceware {
		return DefaultDicewareSize
	}
	return DefaultRandomSize
}

// Spec describes one generation request. Wordlist is only read in Diceware
// mode.
type Spec struct {
	Mode     Mode
	Size     int
	Wordlist []string
}

// Generate produces a password for spec using src.
func Generate(src *entropy.Source, spec Spec) (string, error) {
	if spec.Size < 1 {
		return "", ErrInvalidSize
	}

	switch spec.Mode {
	case Random:
		return randomChars(src, spec.Size)
	case Diceware:
		return diceware(src, spec.Size, spec.Wordlist)
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownMode, spec.Mode)
	}
}

func randomChars(src *entropy.Source, size int) (string, error) {
	out := make([]byte, size)
	for i := range out {
		idx, err := src.Index(len(Alphabet))
		if err != nil {
			return "", fmt.Errorf("generator: pick character: %w", err)
		}
		out[i] = Alphabet[idx]
	}
	return string(out), nil
}

func diceware(src *entropy.Source, size int, wordlist []string) (string, error) {
	if len(wordlist) == 0 {
		return "", ErrEmptyWordlist
	}
	if err := checkDistinct(wordlist); err != nil {
		return "", err
	}

	words := make([]string, size)
	for i := range words {
		idx, err := src.Index(len(wordlist))
		if err != nil {
			return "", fmt.Errorf("generator: pick word: %w", err)
		}
		words[i] = wordlist[idx]
	}
	return strings.Join(words, wordSeparator), nil
}

func checkDistinct(wordlist []string) error {
	seen := make(map[string]struct{}, len(wordlist))
	for _, w := range wordlist {
		if _, ok := seen[w]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateWord, w)
		}
		seen[w] = struct{}{}
	}
	return nil
}
