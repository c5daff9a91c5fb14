// Package config loads the nyarchiver settings from an optional TOML file
// and NYARCHIVER_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nercone/nyarchiver"
	"github.com/nercone/nyarchiver/command"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "nyarchiver"
	// EnvPrefix is the prefix of the environment variables.
	EnvPrefix = "NYARCHIVER"
	// FileName is the name of the config file without its extension.
	FileName = "config"
	// FileExt is the config file extension.
	FileExt = "toml"
)

var ErrInvalid = errors.New("invalid configuration")

// Programs are the names or paths of the archiver programs.
type Programs struct {
	SevenZip string `mapstructure:"sevenzip"`
	Unrar    string `mapstructure:"unrar"`
}

// Config holds the settings of nyarchiver.
type Config struct {
	Format   string        `mapstructure:"format"`   // Format is the export format of filenames without a known extension.
	Verbose  bool          `mapstructure:"verbose"`  // Verbose enables debug logging.
	TempDir  string        `mapstructure:"temp_dir"` // TempDir is the parent of the workspaces.
	Timeout  time.Duration `mapstructure:"timeout"`  // Timeout is the maximum run time of an archiver program.
	Programs Programs      `mapstructure:"programs"`
	Password string        `mapstructure:"password"` // Password is the default of the --password flags.
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Format:  string(nyarchiver.Zip),
		Timeout: command.TimeoutExtract,
		Programs: Programs{
			SevenZip: command.Zip7,
			Unrar:    command.Unrar,
		},
	}
}

// Dir returns the nyarchiver configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and the others use $XDG_CONFIG_HOME (defaulting to ~/.config).
func Dir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

// Load reads the configuration. A non-empty path must name an existing
// config file, otherwise the config.toml file of [Dir] is used when it exists.
// Environment variables override the file, for example NYARCHIVER_FORMAT or
// NYARCHIVER_PROGRAMS_SEVENZIP.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("format", def.Format)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("temp_dir", def.TempDir)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("programs.sevenzip", def.Programs.SevenZip)
	v.SetDefault("programs.unrar", def.Programs.Unrar)
	v.SetDefault("password", def.Password)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType(FileExt)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	} else if dir, err := Dir(); err == nil {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns an error wrapping ErrInvalid for unusable settings.
func (c Config) Validate() error {
	f, err := nyarchiver.ParseFormat(c.Format)
	if err != nil {
		return fmt.Errorf("%w: format: %w", ErrInvalid, err)
	}
	if !f.Writable() {
		return fmt.Errorf("%w: format %s cannot be written", ErrInvalid, f)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, not %s", ErrInvalid, c.Timeout)
	}
	return nil
}

// DefaultFormat returns the parsed export format.
func (c Config) DefaultFormat() nyarchiver.Format {
	f, err := nyarchiver.ParseFormat(c.Format)
	if err != nil {
		return nyarchiver.Zip
	}
	return f
}
