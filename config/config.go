// Package config loads pwdeck settings from defaults, a YAML file,
// PWDECK_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "pwdeck"
	envPrefix = "pwdeck"
)

type Config struct {
	Vault            string        `mapstructure:"vault" yaml:"vault"`
	Wordlist         string        `mapstructure:"wordlist" yaml:"wordlist"`
	ClipboardTimeout time.Duration `mapstructure:"clipboard_timeout" yaml:"clipboard_timeout"`
	Debug            bool          `mapstructure:"debug" yaml:"debug"`
}

// DefaultVaultPath is ~/.local/share/pwdeck/vault.pwd.
func DefaultVaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "vault.pwd")
	}
	return filepath.Join(home, ".local", "share", appName, "vault.pwd")
}

func Defaults() map[string]any {
	return map[string]any{
		"vault":             DefaultVaultPath(),
		"wordlist":          "",
		"clipboard_timeout": 30 * time.Second,
		"debug":             false,
	}
}

// configDir is the per-user directory searched for pwdeck.yaml.
func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// Load resolves the configuration for cmd. An explicit file that cannot be
// read is an error; a missing default file is not.
func Load(cmd *cobra.Command, file string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Render returns c as YAML.
func Render(c Config) ([]byte, error) {
	return yaml.Marshal(struct {
		Vault            string `yaml:"vault"`
		Wordlist         string `yaml:"wordlist"`
		ClipboardTimeout string `yaml:"clipboard_timeout"`
		Debug            bool   `yaml:"debug"`
	}{
		Vault:            c.Vault,
		Wordlist:         c.Wordlist,
		ClipboardTimeout: c.ClipboardTimeout.String(),
		Debug:            c.Debug,
	})
}
