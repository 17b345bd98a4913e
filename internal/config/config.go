// Package config loads clientdb settings from config.yaml, an optional .env
// file and CLIENTDB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cartronic/clientdb/internal/mail"
	"github.com/cartronic/clientdb/pkg/types"
)

const (
	FileName    = "config.yaml"
	DotEnvName  = ".env"
	EnvPrefix   = "CLIENTDB"
	fileBase    = "config"
	fileType    = "yaml"
	defaultPort = 587
)

// Config keys.
const (
	KeyBackend      = "backend"
	KeyDataDir      = "data_dir"
	KeyDBFile       = "db_file"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
	KeySMTPHost     = "smtp.host"
	KeySMTPPort     = "smtp.port"
	KeySMTPUsername = "smtp.username"
	KeySMTPPassword = "smtp.password"
	KeySMTPFrom     = "smtp.from"
)

// envKeys are the keys that CLIENTDB_* variables may override. data_dir is
// absent because its environment variable is handled by internal/paths,
// after the config file value.
var envKeys = []string{
	KeyBackend, KeyDBFile,
	KeyLogLevel, KeyLogFormat,
	KeySMTPHost, KeySMTPPort, KeySMTPUsername, KeySMTPPassword, KeySMTPFrom,
}

// Config is the typed view of config.yaml.
type Config struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	DBFile  string `mapstructure:"db_file" yaml:"db_file"`
	Log     Log    `mapstructure:"log" yaml:"log"`
	SMTP    SMTP   `mapstructure:"smtp" yaml:"smtp"`
}

// Log selects the logger level and encoder.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SMTP holds outbound mail settings. The password is never written back to
// config.yaml; keep it in .env or the environment.
type SMTP struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
	From     string `mapstructure:"from" yaml:"from"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Backend: types.BackendSQLite,
		DBFile:  types.DefaultDBFile,
		Log:     Log{Level: "warn", Format: "console"},
		SMTP:    SMTP{Host: "smtp.gmail.com", Port: defaultPort},
	}
}

// Registry returns the Attach configuration for dataDir.
func (c Config) Registry(dataDir string) types.Config {
	return types.Config{Backend: c.Backend, DataDir: dataDir, DBFile: c.DBFile}
}

// Mail returns the SMTP settings for the mail dispatcher.
func (c Config) Mail() mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
	}
}

// Load reads configDir/config.yaml, creating the directory and a default file
// on first run. Precedence, highest first: process environment, configDir/.env,
// config.yaml, defaults.
func Load(configDir string) (Config, error) {
	if _, err := WriteDefault(configDir, ""); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigName(fileBase)
	v.SetConfigType(fileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyDotEnv(v, filepath.Join(configDir, DotEnvName)); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault(KeyBackend, d.Backend)
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyDBFile, d.DBFile)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeySMTPHost, d.SMTP.Host)
	v.SetDefault(KeySMTPPort, d.SMTP.Port)
	v.SetDefault(KeySMTPUsername, d.SMTP.Username)
	v.SetDefault(KeySMTPPassword, d.SMTP.Password)
	v.SetDefault(KeySMTPFrom, d.SMTP.From)
}

// applyDotEnv overlays CLIENTDB_* entries from path without touching the
// process environment. Variables already set in the environment win.
func applyDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	entries, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, key := range envKeys {
		name := EnvVar(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if val, ok := entries[name]; ok {
			v.Set(key, val)
		}
	}
	return nil
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// WriteDefault writes configDir/config.yaml with default settings when the
// file does not exist. A non-empty dataDir is recorded as data_dir. Reports
// whether a file was written.
func WriteDefault(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := Default()
	cfg.DataDir = dataDir
	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	data := append([]byte(header), body...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

const header = `# clientdb configuration
# smtp.password is read from CLIENTDB_SMTP_PASSWORD (environment or .env).
`
