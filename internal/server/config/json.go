package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. Only the fields present in the file are copied into
// the runtime Config.
type JsonConfig struct {
	DatabaseDSN       *string         `json:"database_dsn"`
	AdminEmails       []string        `json:"admin_emails"`
	ChunkSize         *int            `json:"chunk_size"`
	ValueCacheSize    *int            `json:"value_cache_size"`
	SessionValidity   *timex.Duration `json:"session_validity"`
	PartStorage       *string         `json:"part_storage"`
	UploadConcurrency *int            `json:"upload_concurrency"`
	S3RootUser        *string         `json:"s3_root_user"`
	S3RootPassword    *string         `json:"s3_root_password"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file at path onto config.
// An empty path means there is nothing to load.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.AdminEmails != nil {
		config.AdminEmails = c.AdminEmails
	}
	setInt(&config.ChunkSize, c.ChunkSize)
	setInt(&config.ValueCacheSize, c.ValueCacheSize)
	if c.SessionValidity != nil {
		config.SessionValidity = c.SessionValidity.Duration
	}
	setString(&config.PartStorage, c.PartStorage)
	setInt(&config.UploadConcurrency, c.UploadConcurrency)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
