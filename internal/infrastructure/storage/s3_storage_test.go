package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/infrastructure/config"
)

func testConfig(endpoint string) config.StorageConfig {
	return config.StorageConfig{
		Enabled:         true,
		Bucket:          "smartstore",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
		KeyPrefix:       "/dev/",
	}
}

func TestNewS3Storage_Validation(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, err := NewS3Storage(t.Context(), config.StorageConfig{})
		assert.ErrorIs(t, err, ErrStorageDisabled)
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testConfig("http://localhost:9000")
		cfg.Bucket = ""
		_, err := NewS3Storage(t.Context(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half configured keys", func(t *testing.T) {
		cfg := testConfig("http://localhost:9000")
		cfg.SecretAccessKey = ""
		_, err := NewS3Storage(t.Context(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("default expiry", func(t *testing.T) {
		cfg := testConfig("http://localhost:9000")
		cfg.PresignExpiry = 0
		s, err := NewS3Storage(t.Context(), cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiry)
		assert.Equal(t, "smartstore", s.Bucket())
	})
}

func TestS3Storage_Presign(t *testing.T) {
	s, err := NewS3Storage(t.Context(), testConfig("http://localhost:9000"))
	require.NoError(t, err)

	before := time.Now()
	rawURL, expiresAt, err := s.PresignUpload(t.Context(), "tenants/t1/products/p1/a.png", "image/png")
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/smartstore/dev/tenants/t1/products/p1/a.png", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.WithinDuration(t, before.Add(10*time.Minute), expiresAt, 5*time.Second)

	rawURL, _, err = s.PresignDownload(t.Context(), "tenants/t1/products/p1/a.png")
	require.NoError(t, err)
	assert.Contains(t, rawURL, "X-Amz-Signature=")

	_, _, err = s.PresignUpload(t.Context(), "", "image/png")
	assert.Error(t, err)
}

func TestS3Storage_PutAndExists(t *testing.T) {
	var mu sync.Mutex
	stored := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			_, _ = io.Copy(io.Discard, r.Body)
			stored[r.URL.Path] = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		case http.MethodHead:
			if _, ok := stored[r.URL.Path]; ok {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodDelete:
			delete(stored, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	s, err := NewS3Storage(t.Context(), testConfig(srv.URL))
	require.NoError(t, err)

	key := InvoiceKey("t1", "ORD-20260101-ABC123")
	require.NoError(t, s.Put(t.Context(), key, []byte("%PDF-1.7"), "application/pdf"))

	mu.Lock()
	assert.Equal(t, "application/pdf", stored["/smartstore/dev/tenants/t1/invoices/ORD-20260101-ABC123.pdf"])
	mu.Unlock()

	ok, err := s.Exists(t.Context(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(t.Context(), key))
	ok, err = s.Exists(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductImageKey(t *testing.T) {
	key := ProductImageKey("t1", "p1", "Photo.JPG")
	assert.True(t, strings.HasPrefix(key, "tenants/t1/products/p1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}
