package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables recognised by parseEnv.
const (
	EnvDatabaseDSN       = "GOPHSTORE_DATABASE_DSN"
	EnvAdminEmails       = "GOPHSTORE_ADMIN_EMAILS"
	EnvChunkSize         = "GOPHSTORE_CHUNK_SIZE"
	EnvValueCacheSize    = "GOPHSTORE_VALUE_CACHE_SIZE"
	EnvSessionValidity   = "GOPHSTORE_SESSION_VALIDITY"
	EnvPartStorage       = "GOPHSTORE_PART_STORAGE"
	EnvUploadConcurrency = "GOPHSTORE_UPLOAD_CONCURRENCY"
	EnvS3RootUser        = "GOPHSTORE_S3_ROOT_USER"
	EnvS3RootPassword    = "GOPHSTORE_S3_ROOT_PASSWORD"
	EnvS3Bucket          = "GOPHSTORE_S3_BUCKET"
	EnvS3Region          = "GOPHSTORE_S3_REGION"
	EnvS3BaseEndpoint    = "GOPHSTORE_S3_BASE_ENDPOINT"
	EnvLogLevel          = "GOPHSTORE_LOG_LEVEL"
)

// parseEnv overlays non-empty GOPHSTORE_* variables onto config.
// Malformed numbers and durations are reported, not ignored.
func parseEnv(config *Config) error {
	envString(&config.DatabaseDSN, EnvDatabaseDSN)
	if v := os.Getenv(EnvAdminEmails); v != "" {
		config.AdminEmails = splitList(v)
	}
	if err := envInt(&config.ChunkSize, EnvChunkSize); err != nil {
		return err
	}
	if err := envInt(&config.ValueCacheSize, EnvValueCacheSize); err != nil {
		return err
	}
	if v := os.Getenv(EnvSessionValidity); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSessionValidity, err)
		}
		config.SessionValidity = d
	}
	envString(&config.PartStorage, EnvPartStorage)
	if err := envInt(&config.UploadConcurrency, EnvUploadConcurrency); err != nil {
		return err
	}
	envString(&config.S3RootUser, EnvS3RootUser)
	envString(&config.S3RootPassword, EnvS3RootPassword)
	envString(&config.S3Bucket, EnvS3Bucket)
	envString(&config.S3Region, EnvS3Region)
	envString(&config.S3BaseEndpoint, EnvS3BaseEndpoint)
	envString(&config.LogLevel, EnvLogLevel)
	return nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
