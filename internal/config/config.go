package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RemoteURL      string   `mapstructure:"remote_url"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	UseToken       bool     `mapstructure:"use_token"`
	CollectivePath string   `mapstructure:"collective_path"`
	VaultDir       string   `mapstructure:"vault_dir"`
	LocalFolder    string   `mapstructure:"local_folder"`
	SyncInterval   int      `mapstructure:"sync_interval"`
	SyncOnStartup  bool     `mapstructure:"sync_on_startup"`
	SyncOnSave     bool     `mapstructure:"sync_on_save"`
	DaemonPort     int      `mapstructure:"daemon_port"`
	BufferSize     int      `mapstructure:"buffer_size"`
	IgnoreList     []string `mapstructure:"ignore_list"`
	DBPath         string   `mapstructure:"db_path"`
}

var Default = Config{
	CollectivePath: "/Collectives",
	SyncInterval:   5,
	SyncOnStartup:  true,
	SyncOnSave:     true,
	DaemonPort:     9011,
	BufferSize:     100,
	IgnoreList:     []string{".git", ".obsidian", ".trash", ".DS_Store", "*.tmp", "*.swp"},
	DBPath:         "collsync.db",
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(home, ".collsync")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	return dir, nil
}

func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("collective_path", Default.CollectivePath)
	viper.SetDefault("sync_interval", Default.SyncInterval)
	viper.SetDefault("sync_on_startup", Default.SyncOnStartup)
	viper.SetDefault("sync_on_save", Default.SyncOnSave)
	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("buffer_size", Default.BufferSize)
	viper.SetDefault("ignore_list", Default.IgnoreList)
	viper.SetDefault("db_path", Default.DBPath)

	viper.SetEnvPrefix("COLLSYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(configDir, cfg.DBPath)
	}

	return &cfg, nil
}

// Save persists the current values back to the config file. Used by the
// login command after a credential exchange.
func Save(cfg *Config) error {
	configDir, err := Dir()
	if err != nil {
		return err
	}

	viper.Set("remote_url", cfg.RemoteURL)
	viper.Set("username", cfg.Username)
	viper.Set("password", cfg.Password)
	viper.Set("use_token", cfg.UseToken)
	viper.Set("collective_path", cfg.CollectivePath)
	viper.Set("vault_dir", cfg.VaultDir)
	viper.Set("local_folder", cfg.LocalFolder)
	viper.Set("sync_interval", cfg.SyncInterval)
	viper.Set("sync_on_startup", cfg.SyncOnStartup)
	viper.Set("sync_on_save", cfg.SyncOnSave)

	if err := viper.WriteConfigAs(filepath.Join(configDir, "config.yaml")); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields a sync pass depends on. Exactly one of the
// password or token credential modes may be active.
func (c *Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("vault_dir is required")
	}

	if c.SyncInterval < 0 {
		return fmt.Errorf("sync_interval must not be negative")
	}

	if c.UseToken && c.Password != "" {
		return fmt.Errorf("password and token credentials are mutually exclusive")
	}

	if strings.Contains(c.CollectivePath, "..") {
		return fmt.Errorf("collective_path must not contain '..'")
	}

	return nil
}

// Connected reports whether enough of the remote side is configured for
// a pass to start at all.
func (c *Config) Connected() bool {
	if c.RemoteURL == "" {
		return false
	}

	if c.UseToken {
		return true
	}

	return c.Username != "" && c.Password != ""
}
