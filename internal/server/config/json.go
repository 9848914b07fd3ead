package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/vikinglab/contentvault/internal/flagx"
	"github.com/vikinglab/contentvault/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "30m" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr                string         `json:"endpoint_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	MaxFileSizeBytes            int64          `json:"max_file_size_bytes"`
	StorageQuotaBytes           int64          `json:"storage_quota_bytes"`
	MinFreeSpaceBytes           int64          `json:"min_free_space_bytes"`
	ForbiddenNameSubstring      string         `json:"forbidden_name_substring"`
	StorageBackend              string         `json:"storage_backend"`
	FileStorePath               string         `json:"file_store_path"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is given, nothing is
// loaded. If the file cannot be read or contains invalid JSON, the function
// panics: a requested but broken config file is a startup error.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.MaxFileSizeBytes != 0 {
		config.MaxFileSizeBytes = c.MaxFileSizeBytes
	}
	if c.StorageQuotaBytes != 0 {
		config.StorageQuotaBytes = c.StorageQuotaBytes
	}
	if c.MinFreeSpaceBytes != 0 {
		config.MinFreeSpaceBytes = c.MinFreeSpaceBytes
	}
	if c.ForbiddenNameSubstring != "" {
		config.ForbiddenNameSubstring = c.ForbiddenNameSubstring
	}
	if c.StorageBackend != "" {
		config.StorageBackend = c.StorageBackend
	}
	if c.FileStorePath != "" {
		config.FileStorePath = c.FileStorePath
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
