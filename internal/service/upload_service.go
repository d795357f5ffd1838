package service

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
	"github.com/gracechapel-dev/church-site-api/pkg/storage"
)

type uploadStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// UploadConfig tunes upload behaviour.
type UploadConfig struct {
	APIPrefix    string
	MaxSizeBytes int64
	AllowedMIMEs []string
}

// UploadService stores media files for articles and events and issues signed
// download tokens for them.
type UploadService struct {
	storage uploadStorage
	signer  *storage.SignedURLSigner
	cfg     UploadConfig
	logger  *zap.Logger
}

// NewUploadService constructs an UploadService.
func NewUploadService(store uploadStorage, signer *storage.SignedURLSigner, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 10 << 20
	}
	return &UploadService{storage: store, signer: signer, cfg: cfg, logger: logger}
}

// Upload describes an incoming file.
type Upload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// UploadResult captures stored file metadata and its signed download URL.
type UploadResult struct {
	FileID    string    `json:"file_id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Download wraps an open file handle for streaming to the client.
type Download struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	MimeType  string
}

// Store validates and persists an uploaded file, returning a signed URL.
// The declared size is checked up front, and the stream itself is measured
// while writing so a client understating the size is still rejected.
func (s *UploadService) Store(upload Upload) (*UploadResult, error) {
	if upload.Size > s.cfg.MaxSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxSizeBytes))
	}
	if !s.mimeAllowed(upload.MimeType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("mime type %q not allowed", upload.MimeType))
	}

	fileID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("2006/01"), fileID, strings.ToLower(filepath.Ext(upload.Filename)))
	counted := &countingReader{r: io.LimitReader(upload.Content, s.cfg.MaxSizeBytes+1)}
	stored, err := s.storage.SaveStream(relPath, counted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	if counted.n > s.cfg.MaxSizeBytes {
		if err := s.storage.Delete(stored); err != nil {
			s.logger.Warn("failed to remove oversized upload", zap.String("path", stored), zap.Error(err))
		}
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxSizeBytes))
	}

	token, expiresAt, err := s.signer.Generate(fileID, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &UploadResult{
		FileID:    fileID,
		Filename:  upload.Filename,
		SizeBytes: counted.n,
		MimeType:  upload.MimeType,
		URL:       fmt.Sprintf("%s/uploads/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Fetch validates a signed token and opens the referenced file.
func (s *UploadService) Fetch(token string) (*Download, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file")
	}
	mimeType := mime.TypeByExtension(filepath.Ext(relPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &Download{
		File:      file,
		Filename:  filepath.Base(relPath),
		SizeBytes: info.Size(),
		MimeType:  mimeType,
	}, nil
}

// Cleanup removes stored files older than ttl.
func (s *UploadService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

// countingReader tracks the bytes actually read, since the multipart
// header's declared size cannot be trusted.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *UploadService) mimeAllowed(mimeType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range s.cfg.AllowedMIMEs {
		if normalized == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
