/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, the pairing policy,
session timeout, and the optional S3 portfolio source.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// PolicyRole makes only viewers discoverable and lets only artists send requests.
	PolicyRole = "role"

	// PolicyOpen makes everyone on the main page discoverable by everyone else.
	PolicyOpen = "open"

	// MatchRequest pairs connections through an explicit request/accept exchange.
	MatchRequest = "request"

	// MatchAuto pairs waiting connections immediately, without an acceptance step.
	MatchAuto = "auto"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	LogLevel    string

	// Security Settings
	AllowedOrigins []string

	// Pairing Settings
	AvailabilityPolicy string
	MatchMode          string
	SessionTimeout     time.Duration

	// Portfolio Settings
	PortfolioTimeout  time.Duration
	SFTPKnownHosts    string
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// S3Enabled reports whether the S3 portfolio source has enough settings to be used.
func (c *AppConfig) S3Enabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != ""
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "3001"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	// --- Pairing Settings ---
	cfg.AvailabilityPolicy = strings.ToLower(os.Getenv("AVAILABILITY_POLICY"))
	if cfg.AvailabilityPolicy == "" {
		cfg.AvailabilityPolicy = PolicyRole
	}
	if cfg.AvailabilityPolicy != PolicyRole && cfg.AvailabilityPolicy != PolicyOpen {
		return nil, fmt.Errorf("invalid AVAILABILITY_POLICY %q: expected %q or %q", cfg.AvailabilityPolicy, PolicyRole, PolicyOpen)
	}

	cfg.MatchMode = strings.ToLower(os.Getenv("MATCH_MODE"))
	if cfg.MatchMode == "" {
		cfg.MatchMode = MatchRequest
	}
	if cfg.MatchMode != MatchRequest && cfg.MatchMode != MatchAuto {
		return nil, fmt.Errorf("invalid MATCH_MODE %q: expected %q or %q", cfg.MatchMode, MatchRequest, MatchAuto)
	}

	cfg.SessionTimeout, err = durationEnv("SESSION_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	// --- Portfolio Settings ---
	cfg.PortfolioTimeout, err = durationEnv("PORTFOLIO_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	if cfg.PortfolioTimeout <= 0 {
		return nil, fmt.Errorf("PORTFOLIO_TIMEOUT must be positive, got %s", cfg.PortfolioTimeout)
	}

	cfg.SFTPKnownHosts = os.Getenv("SFTP_KNOWN_HOSTS")

	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	if cfg.S3Enabled() && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3_BUCKET_NAME and S3_ENDPOINT are set")
	}

	return cfg, nil
}

// durationEnv parses a Go duration from the named variable, returning def when unset.
func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", name, d)
	}

	return d, nil
}
