package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fahmaliyi/pwdeck/entropy"
	"github.com/fahmaliyi/pwdeck/generator"
	"github.com/fahmaliyi/pwdeck/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "correct-horse"

var testKDF = vault.Argon2id{Time: 1, Memory: 64, Threads: 1}

type fakeClipboard struct {
	text   string
	writes []string
}

func (f *fakeClipboard) ReadAll() (string, error) { return f.text, nil }

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	f.writes = append(f.writes, text)
	return nil
}

type harness struct {
	t         *testing.T
	dir       string
	vaultPath string
	clip      *fakeClipboard
}

// newHarness isolates a test from the user's config and environment and
// points pwdeck at a vault in a temp dir.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{t: t, dir: dir, vaultPath: filepath.Join(dir, "vault.pwd"), clip: &fakeClipboard{}}

	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PWDECK_VAULT", h.vaultPath)
	t.Setenv("PWDECK_WORDLIST", "")
	t.Setenv("PWDECK_CLIPBOARD_TIMEOUT", "0s")
	t.Setenv("PWDECK_DEBUG", "")
	t.Setenv(passphraseEnv, testPassphrase)
	t.Setenv(newPassphraseEnv, "")
	require.NoError(t, os.Unsetenv(newPassphraseEnv))
	return h
}

func (h *harness) run(stdin string, args ...string) (stdout, stderr string, code int) {
	h.t.Helper()
	var out, errb bytes.Buffer
	a := &App{
		In:           strings.NewReader(stdin),
		Out:          &out,
		Err:          &errb,
		Entropy:      entropy.Default(),
		Clipboard:    h.clip,
		StoreOptions: []vault.Option{vault.WithKeyDeriver(testKDF)},
	}
	code = a.Run(context.Background(), args)
	return out.String(), errb.String(), code
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, errOut, code := h.run(stdin, args...)
	require.Equal(h.t, 0, code, "pwdeck %v failed: %s", args, errOut)
	return out
}

// storedID extracts the id from the output of "pwdeck new".
func storedID(t *testing.T, out string) string {
	t.Helper()
	open, end := strings.LastIndex(out, "("), strings.LastIndex(out, ")")
	require.True(t, open >= 0 && end > open, "no id in %q", out)
	return out[open+1 : end]
}

func writeWordlist(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

func TestGenerateRandomDefault(t *testing.T) {
	h := newHarness(t)

	out := strings.TrimSuffix(h.mustRun("", "generate"), "\n")
	assert.Len(t, out, generator.DefaultRandomSize)
	for _, c := range out {
		assert.Contains(t, generator.Alphabet, string(c))
	}
}

func TestGenerateRandomSize(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "generate", "random", "--size", "8")
	assert.Len(t, strings.TrimSuffix(out, "\n"), 8)
}

func TestGenerateDiceware(t *testing.T) {
	h := newHarness(t)
	words := writeWordlist(t, h.dir,
		"11111\tabacus", "11112\tabdomen", "", "11113\tabide", "11114\tabiding", "11115\tability")

	out := h.mustRun("", "generate", "diceware", "--wordlist", words, "--size", "4")
	got := strings.Fields(out)
	require.Len(t, got, 4)
	for _, w := range got {
		assert.Contains(t, []string{"abacus", "abdomen", "abide", "abiding", "ability"}, w)
	}

	out = h.mustRun("", "generate", "diceware", "--wordlist", words)
	assert.Len(t, strings.Fields(out), generator.DefaultDicewareSize)
}

func TestGenerateWordlistFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv("PWDECK_WORDLIST", writeWordlist(t, h.dir, "alpha", "beta"))

	out := h.mustRun("", "generate", "diceware", "--size", "1")
	assert.Contains(t, []string{"alpha\n", "beta\n"}, out)
}

func TestGenerateErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero size", []string{"generate", "--size", "0"}, "size must be at least 1"},
		{"negative size", []string{"generate", "diceware", "--size", "-1"}, "size must be at least 1"},
		{"no wordlist", []string{"generate", "diceware"}, "needs a wordlist"},
		{"unknown mode", []string{"generate", "pronounceable"}, "unknown generation mode"},
		{"missing wordlist file", []string{"generate", "diceware", "--wordlist", filepath.Join(h.dir, "nope")}, "wordlist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, code := h.run("", tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestGenerateCopy(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "generate", "--copy")
	assert.Empty(t, out)
	require.Len(t, h.clip.writes, 1)
	assert.Len(t, h.clip.text, generator.DefaultRandomSize)
}

func TestNewGetRemove(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("hunter2\n", "new", "--service", "example.org", "--username", "alice")
	assert.Contains(t, out, "Stored example.org / alice")
	id := storedID(t, out)
	h.mustRun("s3cret\n", "new", "--service", "example.org", "--username", "bob")
	h.mustRun("pa55\n", "new", "--service", "github.com", "--username", "alice")

	assert.Equal(t, "hunter2\n", h.mustRun("", "get", id))

	list := h.mustRun("", "get")
	assert.Contains(t, list, "vault.pwd")
	assert.Contains(t, list, "example.org")
	assert.Contains(t, list, "github.com")
	assert.Contains(t, list, "bob")
	assert.Contains(t, list, id)
	assert.NotContains(t, list, "hunter2")
	assert.Less(t, strings.Index(list, "example.org"), strings.Index(list, "github.com"))

	filtered := h.mustRun("", "get", "--service", "example.org")
	assert.Contains(t, filtered, "bob")
	assert.NotContains(t, filtered, "github.com")

	byUser := h.mustRun("", "get", "--username", "alice")
	assert.Contains(t, byUser, "github.com")
	assert.NotContains(t, byUser, "bob")

	assert.Contains(t, h.mustRun("", "rm", "--service", "example.org", "--username", "alice"), "Removed")

	_, errOut, code := h.run("", "get", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no matching entry")

	_, errOut, code = h.run("", "rm", "--service", "example.org", "--username", "alice")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no matching entry")
}

func TestNewCreatesVaultFile(t *testing.T) {
	h := newHarness(t)
	_, err := os.Stat(h.vaultPath)
	require.True(t, errors.Is(err, os.ErrNotExist))

	_, errOut, code := h.run("hunter2\n", "new", "--service", "s", "--username", "u")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "creating one")

	raw, err := os.ReadFile(h.vaultPath)
	require.NoError(t, err)
	assert.Equal(t, vault.Magic, string(raw[:4]))
	assert.NotContains(t, string(raw), "hunter2")
}

func TestNewGenerate(t *testing.T) {
	h := newHarness(t)

	id := storedID(t, h.mustRun("", "new", "--service", "s", "--username", "u", "--generate"))
	secret := strings.TrimSuffix(h.mustRun("", "get", id), "\n")
	assert.Len(t, secret, generator.DefaultRandomSize)

	words := writeWordlist(t, h.dir, "alpha", "beta", "gamma")
	id = storedID(t, h.mustRun("", "new", "--service", "s", "--username", "v",
		"--generate=diceware", "--wordlist", words, "--size", "3"))
	assert.Len(t, strings.Fields(h.mustRun("", "get", id)), 3)
}

func TestNewErrors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("hunter2\n", "new", "--service", "s", "--username", "u")

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"duplicate", "other\n", []string{"new", "--service", "s", "--username", "u"}, "already exists"},
		{"empty secret", "\n", []string{"new", "--service", "s", "--username", "x"}, "secret must not be empty"},
		{"empty service", "x\n", []string{"new", "--service", "", "--username", "x"}, "service and username are required"},
		{"missing flag", "x\n", []string{"new", "--service", "s"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := h.run(tt.stdin, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
		})
	}

	list := h.mustRun("", "get")
	assert.NotContains(t, list, "x  ")
}

func TestFailedFirstNewCreatesNoVault(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"diceware without wordlist", "", []string{"new", "--service", "s", "--username", "u", "--generate=diceware"}, "needs a wordlist"},
		{"zero size", "", []string{"new", "--service", "s", "--username", "u", "--generate", "--size", "0"}, "size must be at least 1"},
		{"unknown mode", "", []string{"new", "--service", "s", "--username", "u", "--generate=pronounceable"}, "unknown generation mode"},
		{"empty secret", "\n", []string{"new", "--service", "s", "--username", "u"}, "secret must not be empty"},
		{"no input", "", []string{"new", "--service", "s", "--username", "u"}, "secret must not be empty"},
		{"empty service", "x\n", []string{"new", "--service", "", "--username", "u"}, "service and username are required"},
		{"empty username", "x\n", []string{"new", "--service", "s", "--username", ""}, "service and username are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := h.run(tt.stdin, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
			assert.NotContains(t, errOut, "creating one")

			_, err := os.Stat(h.vaultPath)
			assert.True(t, errors.Is(err, os.ErrNotExist), "vault file written by a failed new")
			_, err = os.Stat(h.vaultPath + ".lock")
			assert.True(t, errors.Is(err, os.ErrNotExist), "lock file written by a failed new")
		})
	}
}

func TestNewGenerateModeNeedsEquals(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("", "new", "--service", "s", "--username", "u", "--generate", "diceware")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--generate=diceware")
	_, err := os.Stat(h.vaultPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, errOut, code = h.run("", "new", "--service", "s", "--username", "u", "extra")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "extra")
}

func TestGetWithoutVault(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("", "get")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no vault found")
	_, err := os.Stat(h.vaultPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWrongPassphrase(t *testing.T) {
	h := newHarness(t)
	h.mustRun("hunter2\n", "new", "--service", "s", "--username", "u")
	before, err := os.ReadFile(h.vaultPath)
	require.NoError(t, err)

	t.Setenv(passphraseEnv, "incorrect-horse")
	_, errOut, code := h.run("", "rm", "--service", "s", "--username", "u")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "wrong passphrase")

	after, err := os.ReadFile(h.vaultPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPassphraseNeedsTerminal(t *testing.T) {
	h := newHarness(t)
	h.mustRun("hunter2\n", "new", "--service", "s", "--username", "u")
	require.NoError(t, os.Unsetenv(passphraseEnv))

	_, errOut, code := h.run("", "get")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, passphraseEnv)
}

func TestPasswd(t *testing.T) {
	h := newHarness(t)
	id := storedID(t, h.mustRun("hunter2\n", "new", "--service", "s", "--username", "u"))

	t.Setenv(newPassphraseEnv, "battery-staple")
	assert.Contains(t, h.mustRun("", "passwd"), "changed")

	_, errOut, code := h.run("", "get", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "wrong passphrase")

	t.Setenv(passphraseEnv, "battery-staple")
	assert.Equal(t, "hunter2\n", h.mustRun("", "get", id))
}

func TestPasswdRejectsEmpty(t *testing.T) {
	h := newHarness(t)
	id := storedID(t, h.mustRun("hunter2\n", "new", "--service", "s", "--username", "u"))

	t.Setenv(newPassphraseEnv, "")
	_, errOut, code := h.run("", "passwd")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "passphrase must not be empty")
	assert.Equal(t, "hunter2\n", h.mustRun("", "get", id))
}

func TestGetCopy(t *testing.T) {
	h := newHarness(t)
	id := storedID(t, h.mustRun("hunter2\n", "new", "--service", "s", "--username", "u"))
	h.mustRun("other\n", "new", "--service", "s", "--username", "v")

	out := h.mustRun("", "get", id, "--copy")
	assert.Empty(t, out)
	assert.Equal(t, []string{"hunter2"}, h.clip.writes)

	t.Setenv("PWDECK_CLIPBOARD_TIMEOUT", "10ms")
	h.clip.writes = nil
	h.mustRun("", "get", "--service", "s", "--username", "v", "--copy")
	assert.Equal(t, []string{"other", ""}, h.clip.writes)

	_, errOut, code := h.run("", "get", "--service", "s", "--copy")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "more than one entry")
}

func TestClearClipboardLeavesForeignContent(t *testing.T) {
	clip := &fakeClipboard{text: "something else"}
	require.NoError(t, clearClipboard(clip, "hunter2"))
	assert.Equal(t, "something else", clip.text)
	assert.Empty(t, clip.writes)

	clip.text = "hunter2"
	require.NoError(t, clearClipboard(clip, "hunter2"))
	assert.Empty(t, clip.text)
}

func TestCopyClearsOnCancel(t *testing.T) {
	clip := &fakeClipboard{}
	a := &App{Err: &bytes.Buffer{}, Clipboard: clip}
	a.cfg.ClipboardTimeout = 0
	require.NoError(t, a.copySecret(context.Background(), "x"))
	assert.Equal(t, []string{"x"}, clip.writes)

	clip.writes = nil
	a.cfg.ClipboardTimeout = 24 * time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.copySecret(ctx, "y"))
	assert.Equal(t, []string{"y", ""}, clip.writes)
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "config")
	assert.Contains(t, out, "vault: "+h.vaultPath)
	assert.Contains(t, out, "clipboard_timeout: 0s")

	other := filepath.Join(h.dir, "other.pwd")
	assert.Contains(t, h.mustRun("", "config", "--vault", other), "vault: "+other)
}

func TestVaultFlagOverridesEnv(t *testing.T) {
	h := newHarness(t)
	other := filepath.Join(h.dir, "other.pwd")

	h.mustRun("hunter2\n", "--vault", other, "new", "--service", "s", "--username", "u")
	_, err := os.Stat(other)
	require.NoError(t, err)
	_, err = os.Stat(h.vaultPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("vault: open: %w", vault.ErrWrongPassphrase), "wrong passphrase"},
		{vault.ErrCorruptVault, "damaged"},
		{vault.ErrVaultLocked, "in use by another"},
		{vault.ErrVaultExists, "already exists at this path"},
		{fmt.Errorf("%w: a/b", vault.ErrDuplicateEntry), "already exists"},
		{vault.ErrNotFound, "no matching entry"},
		{entropy.ErrUnavailable, "random source"},
		{generator.ErrDuplicateWord, "duplicate words"},
		{errors.New("something odd"), "something odd"},
	}
	for _, tt := range tests {
		assert.Contains(t, describeError(tt.err), tt.want)
	}
}
