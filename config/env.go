package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "8080"
	defaultMaxUploadMB = 20
)

// LoadEnv loads a local .env if present. Deployed environments set real
// process env vars, so a missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load()
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func Port() string {
	if port := strings.TrimSpace(os.Getenv("API_PORT")); port != "" {
		return port
	}
	// Cloud Run standard env var.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return port
	}
	return defaultPort
}

func MaxUploadBytes() int64 {
	mb := int64(defaultMaxUploadMB)
	if v := strings.TrimSpace(os.Getenv("MAX_UPLOAD_SIZE_MB")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			mb = n
		}
	}
	return mb * 1024 * 1024
}
