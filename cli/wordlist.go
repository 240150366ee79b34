package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadWordlist reads a diceware word list from path.
func LoadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordlist: %w", err)
	}
	defer f.Close()

	words, err := ParseWordlist(f)
	if err != nil {
		return nil, fmt.Errorf("wordlist %s: %w", path, err)
	}
	return words, nil
}

// ParseWordlist reads one word per line. Blank lines are skipped, a leading
// column of dice digits ("11111\tabacus") is dropped, and repeated words keep
// their first position.
func ParseWordlist(r io.Reader) ([]string, error) {
	var words []string
	seen := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		word := line
		if i := strings.IndexAny(line, " \t"); i > 0 && isDiceRoll(line[:i]) {
			word = strings.TrimSpace(line[i:])
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func isDiceRoll(s string) bool {
	for _, c := range s {
		if c < '1' || c > '6' {
			return false
		}
	}
	return s != ""
}
