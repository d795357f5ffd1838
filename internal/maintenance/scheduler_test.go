package maintenance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/service"
	"github.com/gracechapel-dev/church-site-api/pkg/config"
	"github.com/gracechapel-dev/church-site-api/pkg/storage"
)

func TestSchedulerUploadRetentionJob(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	uploads := service.NewUploadService(store, signer, service.UploadConfig{MaxSizeBytes: 1 << 20}, zap.NewNop())

	stale := filepath.Join(dir, "2025", "01", "stale.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	fresh := filepath.Join(dir, "2025", "01", "fresh.png")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	s := NewScheduler(nil, nil, uploads, 24*time.Hour, config.MaintenanceConfig{}, zap.NewNop())
	s.runUploadCleanup()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestSchedulerStartSkipsUploadJobWithoutService(t *testing.T) {
	cfg := config.MaintenanceConfig{Enabled: true, UploadsSchedule: "0 4 * * *"}
	s := NewScheduler(nil, nil, nil, 24*time.Hour, cfg, zap.NewNop())
	require.NoError(t, s.Start())
	s.Stop()
}
