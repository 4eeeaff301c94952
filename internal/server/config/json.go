package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ananddevocation/tripdesk/internal/flagx"
	"github.com/ananddevocation/tripdesk/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept either "5m" style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
	AllowedOrigins       []string       `json:"allowed_origins"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	Algorithm            string         `json:"algorithm"`
	AccessTokenTTL       timex.Duration `json:"access_token_ttl"`
	OTPTTL               timex.Duration `json:"otp_ttl"`
	BcryptCost           int            `json:"bcrypt_cost"`
	LoginRequireActive   bool           `json:"login_require_active"`
	DefaultAdminEmail    string         `json:"default_admin_email"`
	DefaultAdminPassword string         `json:"default_admin_password"`
	DefaultAdminName     string         `json:"default_admin_name"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
	S3AccessKey          string         `json:"s3_access_key"`
	S3SecretKey          string         `json:"s3_secret_key"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

// parseJson overlays Config with the JSON file named by -c/-config or
// $CONFIG_FILE. Keys missing from the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
	config.AllowedOrigins = c.AllowedOrigins
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.Algorithm = c.Algorithm
	config.AccessTokenTTL = c.AccessTokenTTL.Duration
	config.OTPTTL = c.OTPTTL.Duration
	config.BcryptCost = c.BcryptCost
	config.LoginRequireActive = c.LoginRequireActive
	config.DefaultAdminEmail = c.DefaultAdminEmail
	config.DefaultAdminPassword = c.DefaultAdminPassword
	config.DefaultAdminName = c.DefaultAdminName
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint

	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:             c.HTTPAddr,
		ShutdownTimeout:      timex.Duration{Duration: c.ShutdownTimeout},
		AllowedOrigins:       c.AllowedOrigins,
		DatabaseDSN:          c.DatabaseDSN,
		SecretKey:            c.SecretKey,
		Algorithm:            c.Algorithm,
		AccessTokenTTL:       timex.Duration{Duration: c.AccessTokenTTL},
		OTPTTL:               timex.Duration{Duration: c.OTPTTL},
		BcryptCost:           c.BcryptCost,
		LoginRequireActive:   c.LoginRequireActive,
		DefaultAdminEmail:    c.DefaultAdminEmail,
		DefaultAdminPassword: c.DefaultAdminPassword,
		DefaultAdminName:     c.DefaultAdminName,
		LogLevel:             c.LogLevel,
		LogFormat:            c.LogFormat,
		S3AccessKey:          c.S3AccessKey,
		S3SecretKey:          c.S3SecretKey,
		S3Bucket:             c.S3Bucket,
		S3Region:             c.S3Region,
		S3BaseEndpoint:       c.S3BaseEndpoint,
	}
}
