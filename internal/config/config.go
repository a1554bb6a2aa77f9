package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const (
	EnvPrefix           = "FASTFIXUP"
	DefaultOrgEmail     = ".*"
	DefaultBackupPrefix = "fastfixup_backup_"
)

// Keys understood in the config file, in FASTFIXUP_* variables and, for the
// ones that have a flag, on the command line.
const (
	KeyOrgEmail     = "org_email"
	KeyBackupPrefix = "backup_prefix"
	KeyBlameWorkers = "blame_workers"
	KeyExclude      = "exclude"
	KeyEditor       = "editor"
)

type Config struct {
	OrgEmail     string   `mapstructure:"org_email"`
	BackupPrefix string   `mapstructure:"backup_prefix"`
	BlameWorkers int      `mapstructure:"blame_workers"`
	Exclude      []string `mapstructure:"exclude"`
	Editor       string   `mapstructure:"editor"`
}

// GetConfigPath returns where the optional config file is looked up. The file
// is only ever read.
func GetConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fastfixup", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "fastfixup", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "fastfixup", "config.yaml")
}

// New returns a viper instance with defaults and environment binding set up.
// Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyOrgEmail, DefaultOrgEmail)
	v.SetDefault(KeyBackupPrefix, DefaultBackupPrefix)
	v.SetDefault(KeyBlameWorkers, runtime.NumCPU())
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyEditor, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if there is one and resolves the final values.
// Flags bound to v win over the environment, which wins over the file.
func Load(v *viper.Viper) (*Config, error) {
	path := GetConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to stat config %s", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	// Environment lists arrive as one space separated string.
	if len(cfg.Exclude) == 1 && strings.ContainsAny(cfg.Exclude[0], " ,") {
		cfg.Exclude = strings.FieldsFunc(cfg.Exclude[0], func(r rune) bool { return r == ' ' || r == ',' })
	}
	if cfg.OrgEmail == "" {
		cfg.OrgEmail = DefaultOrgEmail
	}
	if cfg.BackupPrefix == "" {
		cfg.BackupPrefix = DefaultBackupPrefix
	}
	if cfg.BlameWorkers <= 0 {
		cfg.BlameWorkers = runtime.NumCPU()
	}
	if cfg.Editor == "" {
		cfg.Editor = DefaultEditor()
	}
	return cfg, nil
}

// DefaultEditor follows git's lookup order.
func DefaultEditor() string {
	for _, env := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if e := strings.TrimSpace(os.Getenv(env)); e != "" {
			return e
		}
	}
	return "vi"
}
