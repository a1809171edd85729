package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	v.SetEnvPrefix("CASNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	resolvePaths(v)

	configPaths := []string{
		v.GetString("paths.config"),
		".",
		"/etc/casnotes",
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")

	// A missing config file is fine, environment and defaults apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if v.GetString("security.secret_key") == "" {
		key, err := generateSecretKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret key: %w", err)
		}
		v.Set("security.secret_key", key)
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Path defaults
	if runtime.GOOS == "windows" {
		v.SetDefault("paths.data", expandPath("%PROGRAMDATA%\\casnotes"))
		v.SetDefault("paths.logs", expandPath("%PROGRAMDATA%\\casnotes\\logs"))
		v.SetDefault("paths.config", expandPath("%PROGRAMDATA%\\casnotes\\config"))
	} else {
		v.SetDefault("paths.data", "/var/lib/casnotes")
		v.SetDefault("paths.logs", "/var/log/casnotes")
		v.SetDefault("paths.config", "/etc/casnotes")
	}

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "{paths.data}/data.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "casnotes")
	v.SetDefault("database.user", "casnotes")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.url", "")

	// Security defaults
	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.jwt.issuer", "casnotes")
	v.SetDefault("security.jwt.access_token_ttl", "2h")
	v.SetDefault("security.jwt.refresh_token_ttl", "72h")
	v.SetDefault("security.password.min_length", 8)

	// Auth defaults
	v.SetDefault("auth.signup_moderation", false)

	// Rate limiting defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 300)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("cors.allowed_headers", "Authorization,Content-Type")
	v.SetDefault("cors.max_age", 3600)
	v.SetDefault("cors.allow_credentials", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.key_prefix", "casnotes:")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.tls", true)
	v.SetDefault("email.smtp.skip_verify", false)
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "CasNotes")
}

func resolvePaths(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		value := v.GetString(key)

		if strings.Contains(value, "{") && strings.Contains(value, "}") {
			resolved := value

			for _, varKey := range v.AllKeys() {
				varPattern := fmt.Sprintf("{%s}", varKey)
				if strings.Contains(resolved, varPattern) {
					resolved = strings.ReplaceAll(resolved, varPattern, v.GetString(varKey))
				}
			}

			v.Set(key, expandPath(resolved))
		}
	}
}

func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}

	return filepath.Clean(path)
}

func generateSecretKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ValidateConfig validates the configuration
func ValidateConfig(v *viper.Viper) error {
	dbType := v.GetString("database.type")
	switch dbType {
	case "sqlite":
		if v.GetString("database.path") == "" {
			return fmt.Errorf("database.path is required for SQLite")
		}
	case "postgresql", "mysql":
		if v.GetString("database.host") == "" {
			return fmt.Errorf("database.host is required for %s", dbType)
		}
		if v.GetString("database.user") == "" {
			return fmt.Errorf("database.user is required for %s", dbType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}

	port := v.GetInt("server.port")
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if v.GetString("security.secret_key") == "" {
		return fmt.Errorf("security.secret_key is required")
	}

	if v.GetBool("email.enabled") {
		if v.GetString("email.smtp.host") == "" {
			return fmt.Errorf("email.smtp.host is required when email is enabled")
		}
		if v.GetString("email.from") == "" {
			return fmt.Errorf("email.from is required when email is enabled")
		}
	}

	return nil
}
