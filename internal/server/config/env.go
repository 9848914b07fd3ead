package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration values from environment variables.
// A variable that is unset or empty leaves the current value untouched.
// Values are typically supplied through a .env file loaded by the entrypoint.
func parseEnv(config *Config) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("ACCESS_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.AccessTokenValidityDuration = d
		}
	}
	if v := os.Getenv("MAX_FILE_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxFileSizeBytes = n
		}
	}
	if v := os.Getenv("STORAGE_QUOTA_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.StorageQuotaBytes = n
		}
	}
	if v := os.Getenv("MIN_FREE_SPACE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MinFreeSpaceBytes = n
		}
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		config.StorageBackend = v
	}
	if v := os.Getenv("FILE_STORE_PATH"); v != "" {
		config.FileStorePath = v
	}
	if v := os.Getenv("S3_ROOT_USER"); v != "" {
		config.S3RootUser = v
	}
	if v := os.Getenv("S3_ROOT_PASSWORD"); v != "" {
		config.S3RootPassword = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		config.S3Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		config.S3Region = v
	}
	if v := os.Getenv("S3_BASE_ENDPOINT"); v != "" {
		config.S3BaseEndpoint = v
	}
}
