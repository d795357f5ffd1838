package service

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
	"github.com/gracechapel-dev/church-site-api/pkg/storage"
)

func newUploadTestService(t *testing.T, cfg UploadConfig) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewUploadService(store, signer, cfg, zap.NewNop())
}

func TestUploadServiceStoreAndFetch(t *testing.T) {
	svc := newUploadTestService(t, UploadConfig{
		APIPrefix:    "/api/v1",
		MaxSizeBytes: 1 << 20,
		AllowedMIMEs: []string{"image/png"},
	})

	content := "fake png bytes"
	result, err := svc.Store(Upload{
		Filename: "banner.png",
		Size:     int64(len(content)),
		MimeType: "image/png",
		Content:  strings.NewReader(content),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.FileID)
	assert.Contains(t, result.URL, "/api/v1/uploads/")

	token := strings.TrimPrefix(result.URL, "/api/v1/uploads/")
	download, err := svc.Fetch(token)
	require.NoError(t, err)
	defer download.File.Close()

	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, int64(len(content)), download.SizeBytes)
	assert.Equal(t, "image/png", download.MimeType)
}

func TestUploadServiceRejectsOversizedFile(t *testing.T) {
	svc := newUploadTestService(t, UploadConfig{MaxSizeBytes: 10})

	_, err := svc.Store(Upload{
		Filename: "big.png",
		Size:     11,
		MimeType: "image/png",
		Content:  strings.NewReader("12345678901"),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErr.Code)
}

func TestUploadServiceRejectsDisallowedMIME(t *testing.T) {
	svc := newUploadTestService(t, UploadConfig{
		MaxSizeBytes: 1 << 20,
		AllowedMIMEs: []string{"image/png", "image/jpeg"},
	})

	_, err := svc.Store(Upload{
		Filename: "script.sh",
		Size:     4,
		MimeType: "application/x-sh",
		Content:  strings.NewReader("#!/b"),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnsupportedMedia.Code, appErr.Code)
}

func TestUploadServiceRejectsUnderdeclaredSize(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewUploadService(store, signer, UploadConfig{MaxSizeBytes: 10}, zap.NewNop())

	_, err = svc.Store(Upload{
		Filename: "big.png",
		Size:     5,
		MimeType: "image/png",
		Content:  strings.NewReader(strings.Repeat("a", 32)),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErr.Code)

	// The partially written file must not be left behind.
	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestUploadServiceCleanupRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewUploadService(store, signer, UploadConfig{MaxSizeBytes: 1 << 20}, zap.NewNop())

	_, err = svc.Store(Upload{
		Filename: "banner.png",
		Size:     4,
		MimeType: "image/png",
		Content:  strings.NewReader("data"),
	})
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return os.Chtimes(path, past, past)
		}
		return nil
	})
	require.NoError(t, err)

	deleted, err := svc.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	deleted, err = svc.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestUploadServiceFetchRejectsTamperedToken(t *testing.T) {
	svc := newUploadTestService(t, UploadConfig{MaxSizeBytes: 1 << 20})

	result, err := svc.Store(Upload{
		Filename: "banner.png",
		Size:     4,
		MimeType: "image/png",
		Content:  strings.NewReader("data"),
	})
	require.NoError(t, err)

	token := strings.TrimPrefix(result.URL, "/api/v1/uploads/")
	_, err = svc.Fetch(token + "x")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
