package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 2*time.Minute, cfg.SyncUploadTimeout)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "vault", cfg.S3Bucket)
	assert.Positive(t, cfg.SyncQueueSize)
	assert.Positive(t, cfg.SyncWorkers)
}

func TestParseFlags_Overrides(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"server", "-a", ":9999", "-t", "5", "-y", "30", "-b", "mirror"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 30*time.Second, cfg.SyncUploadTimeout)
	assert.Equal(t, "mirror", cfg.S3Bucket)
}

func TestParseJson_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	content := `{
		"endpoint_addr": ":7777",
		"database_dsn": "postgres://x",
		"secret_key": "k",
		"access_token_validity_duration": "10m",
		"upload_dir": "blobs",
		"share_link_base": "https://files.example.com",
		"sync_upload_timeout": "45s",
		"sync_queue_size": 128,
		"sync_workers": 4,
		"s3_root_user": "root",
		"s3_root_password": "pw",
		"s3_bucket": "b",
		"s3_region": "r",
		"s3_base_endpoint": "http://minio:9000/"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"server", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":7777", cfg.EndpointAddr)
	assert.Equal(t, 10*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 45*time.Second, cfg.SyncUploadTimeout)
	assert.Equal(t, 128, cfg.SyncQueueSize)
	assert.Equal(t, "https://files.example.com", cfg.ShareLinkBase)
}

func TestParseJson_NoFileFlag(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"server"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":8080", cfg.EndpointAddr)
}
