package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFiles are loaded before the environment is read. Variables already
// present in the process environment are not overridden.
var dotenvFiles = []string{".env"}

func loadDotenv() error {
	for _, name := range dotenvFiles {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// parseEnv overlays Config with values from environment variables. Unset
// variables leave the current value untouched.
func parseEnv(c *Config) error {
	lookupString("HTTP_ADDR", &c.HTTPAddr)
	lookupString("DATABASE_URL", &c.DatabaseDSN)
	lookupString("SECRET_KEY", &c.SecretKey)
	lookupString("ALGORITHM", &c.Algorithm)
	lookupString("DEFAULT_ADMIN_EMAIL", &c.DefaultAdminEmail)
	lookupString("DEFAULT_ADMIN_PASSWORD", &c.DefaultAdminPassword)
	lookupString("DEFAULT_ADMIN_NAME", &c.DefaultAdminName)
	lookupString("LOG_LEVEL", &c.LogLevel)
	lookupString("LOG_FORMAT", &c.LogFormat)
	lookupString("S3_ACCESS_KEY", &c.S3AccessKey)
	lookupString("S3_SECRET_KEY", &c.S3SecretKey)
	lookupString("S3_BUCKET", &c.S3Bucket)
	lookupString("S3_REGION", &c.S3Region)
	lookupString("S3_ENDPOINT", &c.S3BaseEndpoint)

	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	if err := lookupMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", &c.AccessTokenTTL); err != nil {
		return err
	}
	if err := lookupMinutes("OTP_EXPIRE_MINUTES", &c.OTPTTL); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}

	if v, ok := os.LookupEnv("LOGIN_REQUIRE_ACTIVE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOGIN_REQUIRE_ACTIVE: %w", err)
		}
		c.LoginRequireActive = b
	}

	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}

	return nil
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func lookupMinutes(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = time.Duration(n) * time.Minute
	return nil
}

// splitList turns a comma separated list into trimmed, non-empty items.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
