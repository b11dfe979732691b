package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultFallbackDate is used when no rule description carries a
// parseable watermark and SYNC_FALLBACK_DATE is unset.
const DefaultFallbackDate = "2024-01-01"

// Config holds everything a reconciliation run needs. All fields except
// FallbackDate and MaxInFlight are required; Validate reports the first
// missing one.
type Config struct {
	Bucket       string // S3 bucket holding the daily exports
	ExportPrefix string // key prefix ahead of the /YYYY/MM/DD/ partitions

	ProjectKey     string
	EnvironmentKey string
	SegmentKey     string
	APIToken       string
	BaseURL        string // flag service base URL, no trailing slash

	WebhookURL string // notifier target

	PatchValueLimit int       // max domain values per patch operation
	FallbackDate    time.Time // watermark when none is stored remotely
	MaxInFlight     int       // fan-out concurrency ceiling per stage
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	fb, err := time.ParseInLocation("2006-01-02", getEnv("SYNC_FALLBACK_DATE", DefaultFallbackDate), time.UTC)
	if err != nil {
		return Config{}, fmt.Errorf("SYNC_FALLBACK_DATE: %w", err)
	}
	cfg := Config{
		Bucket:          os.Getenv("SYNC_BUCKET"),
		ExportPrefix:    os.Getenv("SYNC_EXPORT_PREFIX"),
		ProjectKey:      os.Getenv("FLAG_PROJECT_KEY"),
		EnvironmentKey:  os.Getenv("FLAG_ENVIRONMENT_KEY"),
		SegmentKey:      os.Getenv("FLAG_SEGMENT_KEY"),
		APIToken:        os.Getenv("FLAG_API_TOKEN"),
		BaseURL:         os.Getenv("FLAG_BASE_URL"),
		WebhookURL:      os.Getenv("NOTIFY_WEBHOOK_URL"),
		PatchValueLimit: getEnvInt("SYNC_PATCH_VALUE_LIMIT", 0),
		FallbackDate:    fb,
		MaxInFlight:     getEnvInt("SYNC_MAX_INFLIGHT", 16),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on any missing required setting.
func (c Config) Validate() error {
	required := []struct {
		name, val string
	}{
		{"SYNC_BUCKET", c.Bucket},
		{"SYNC_EXPORT_PREFIX", c.ExportPrefix},
		{"FLAG_PROJECT_KEY", c.ProjectKey},
		{"FLAG_ENVIRONMENT_KEY", c.EnvironmentKey},
		{"FLAG_SEGMENT_KEY", c.SegmentKey},
		{"FLAG_API_TOKEN", c.APIToken},
		{"FLAG_BASE_URL", c.BaseURL},
		{"NOTIFY_WEBHOOK_URL", c.WebhookURL},
	}
	for _, r := range required {
		if r.val == "" {
			return fmt.Errorf("missing required setting %s", r.name)
		}
	}
	if c.PatchValueLimit <= 0 {
		return fmt.Errorf("SYNC_PATCH_VALUE_LIMIT must be a positive integer")
	}
	if c.MaxInFlight <= 0 {
		return fmt.Errorf("SYNC_MAX_INFLIGHT must be a positive integer")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n != 0 {
			return n
		}
	}
	return def
}
