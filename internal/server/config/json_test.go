package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"database_dsn":       "postgres://db",
		"admin_emails":       []string{"root@example.com"},
		"chunk_size":         512,
		"value_cache_size":   0,
		"session_validity":   "2h",
		"part_storage":       "s3",
		"upload_concurrency": 8,
		"s3_root_user":       "user",
		"s3_root_password":   "password",
		"s3_bucket":          "bucket",
		"s3_region":          "region",
		"s3_base_endpoint":   "base_endpoint",
		"log_level":          "debug",
	})

	t.Run("loads every field", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, full))

		want := &Config{
			DatabaseDSN:       "postgres://db",
			AdminEmails:       []string{"root@example.com"},
			ChunkSize:         512,
			ValueCacheSize:    0,
			SessionValidity:   2 * time.Hour,
			PartStorage:       "s3",
			UploadConcurrency: 8,
			S3RootUser:        "user",
			S3RootPassword:    "password",
			S3Bucket:          "bucket",
			S3Region:          "region",
			S3BaseEndpoint:    "base_endpoint",
			LogLevel:          "debug",
		}
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"chunk_size": 100})
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, partial))

		assert.Equal(t, 100, cfg.ChunkSize)
		assert.Equal(t, PartStorageDB, cfg.PartStorage)
		assert.Equal(t, 1024, cfg.ValueCacheSize)
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		cfg := &Config{DatabaseDSN: "keep"}
		require.NoError(t, parseJson(cfg, ""))
		assert.Equal(t, "keep", cfg.DatabaseDSN)
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, parseJson(&Config{}, filepath.Join(dir, "nope.json")))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Error(t, parseJson(&Config{}, bad))
	})
}
