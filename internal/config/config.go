package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys shared by the environment and the config file.
const (
	keyIssuer        = "issuer"
	keyTokenTTL      = "token_expire_time"
	keySecretKey     = "secret_key"
	keyServerAddr    = "server_addr"
	keyDatabasePath  = "database_path"
	keyLogLevel      = "log_level"
	keyAdminUsername = "admin_username"
	keyAdminPassword = "admin_password"
)

// DeployedEnv switches configuration to environment variables only.
const DeployedEnv = "DEPLOYED"

// ConfigFileEnv overrides the config file path used outside deployments.
const ConfigFileEnv = "CONFIG_FILE"

const defaultConfigFile = "config.env"

// DotEnvFile is preloaded into the process environment by Load.
const DotEnvFile = ".env"

var settingKeys = []string{
	keyIssuer, keyTokenTTL, keySecretKey, keyServerAddr,
	keyDatabasePath, keyLogLevel, keyAdminUsername, keyAdminPassword,
}

// Config holds application level configuration resolved once at start-up.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		Issuer          string
		TokenTTLSeconds int64
		SecretKey       string
		AdminUsername   string
		AdminPassword   string
	}
	Log struct {
		Level string
	}
}

// Source selects where configuration values come from.
type Source struct {
	Deployed bool
	File     string
}

// TokenTTL returns the token lifetime as a duration.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLSeconds) * time.Second
}

// Validate checks the values the token service cannot run without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.Issuer) == "" {
		errs = append(errs, errors.New("issuer is required"))
	}
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.Auth.TokenTTLSeconds <= 0 {
		errs = append(errs, errors.New("token expire time must be a positive number of seconds"))
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		errs = append(errs, errors.New("admin username and password must be set together"))
	}
	return errors.Join(errs...)
}

// String renders the configuration with secrets redacted.
func (c Config) String() string {
	return fmt.Sprintf("server.addr=%s database.path=%s auth.issuer=%s auth.ttl=%ds auth.secret=%s auth.admin=%s log.level=%s",
		c.Server.Addr,
		c.Database.Path,
		c.Auth.Issuer,
		c.Auth.TokenTTLSeconds,
		redact(c.Auth.SecretKey),
		c.Auth.AdminUsername,
		c.Log.Level,
	)
}

// DefaultSource picks environment-only configuration when DEPLOYED is set,
// and the config file otherwise.
func DefaultSource() Source {
	file := os.Getenv(ConfigFileEnv)
	if file == "" {
		file = defaultConfigFile
	}
	return Source{
		Deployed: os.Getenv(DeployedEnv) != "",
		File:     file,
	}
}

// Load reads configuration from the default source.
func Load() (Config, error) {
	if err := preloadEnvFile(DotEnvFile); err != nil {
		return Config{}, err
	}
	return LoadFrom(DefaultSource())
}

// LoadFrom reads configuration from src and validates it.
func LoadFrom(src Source) (Config, error) {
	v := viper.New()
	v.SetDefault(keyServerAddr, "0.0.0.0:8080")
	v.SetDefault(keyDatabasePath, "data/auth.db")
	v.SetDefault(keyLogLevel, "info")

	if src.Deployed {
		for _, key := range settingKeys {
			if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
				return Config{}, fmt.Errorf("bind env %s: %w", key, err)
			}
		}
	} else {
		v.SetConfigFile(src.File)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", src.File, err)
		}
	}

	var cfg Config
	cfg.Server.Addr = v.GetString(keyServerAddr)
	cfg.Database.Path = v.GetString(keyDatabasePath)
	cfg.Log.Level = v.GetString(keyLogLevel)
	cfg.Auth.Issuer = v.GetString(keyIssuer)
	cfg.Auth.SecretKey = v.GetString(keySecretKey)
	cfg.Auth.AdminUsername = v.GetString(keyAdminUsername)
	cfg.Auth.AdminPassword = v.GetString(keyAdminPassword)

	ttl := strings.TrimSpace(v.GetString(keyTokenTTL))
	if ttl != "" {
		var err error
		if cfg.Auth.TokenTTLSeconds, err = parseSeconds(ttl); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", strings.ToUpper(keyTokenTTL), err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func parseSeconds(value string) (int64, error) {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number of seconds", value)
	}
	return seconds, nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}

// preloadEnvFile copies the known settings, DEPLOYED and CONFIG_FILE from a
// dotenv file into the environment. Variables already set are left alone, and
// unrelated keys in the file are ignored. A missing file is not an error.
func preloadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	keys := append([]string{strings.ToLower(DeployedEnv), strings.ToLower(ConfigFileEnv)}, settingKeys...)
	for _, key := range keys {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set || !v.IsSet(key) {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}
