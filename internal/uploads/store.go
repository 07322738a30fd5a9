// Package uploads validates and persists image uploads and serves them back.
package uploads

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	opSave    = "uploads.save"
	opSaveAll = "uploads.save_all"

	// DefaultMaxFiles bounds a multi-file upload.
	DefaultMaxFiles = 10
	// DefaultPublicPrefix is the URL path stored files are served under.
	DefaultPublicPrefix = "/images"
)

var (
	allowedExtensions = map[string]struct{}{".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {}}
	allowedMediaTypes = map[string]struct{}{"image/jpeg": {}, "image/jpg": {}, "image/png": {}, "image/gif": {}}
	unsafeNameChars   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

	errMissingFilesystem = errors.New("uploads: filesystem is required")
	errMissingDirectory  = errors.New("uploads: directory is required")
)

// Config describes where uploads are written and how they are named.
type Config struct {
	Filesystem   afero.Fs
	Directory    string
	PublicPrefix string
	MaxFiles     int
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Store writes accepted images under Directory on Filesystem.
type Store struct {
	fs           afero.Fs
	publicPrefix string
	maxFiles     int
	clock        func() time.Time
	logger       *zap.Logger
}

// StoredFile describes one persisted upload.
type StoredFile struct {
	Filename     string
	OriginalName string
	URL          string
	Size         int64
}

// NewStore creates Directory when missing and returns a Store rooted there.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Filesystem == nil {
		return nil, errMissingFilesystem
	}
	directory := strings.TrimSpace(cfg.Directory)
	if directory == "" {
		return nil, errMissingDirectory
	}
	if err := cfg.Filesystem.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create directory %s: %w", directory, err)
	}

	prefix := strings.TrimSpace(cfg.PublicPrefix)
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		fs:           afero.NewBasePathFs(cfg.Filesystem, directory),
		publicPrefix: "/" + strings.Trim(prefix, "/"),
		maxFiles:     maxFiles,
		clock:        clock,
		logger:       logger,
	}, nil
}

// MaxFiles reports the per-request limit for multi-file uploads.
func (s *Store) MaxFiles() int {
	return s.maxFiles
}

// PublicPrefix reports the URL path the files are served under.
func (s *Store) PublicPrefix() string {
	return s.publicPrefix
}

// ValidateImage accepts a file only when both its declared media type and its
// filename extension are on the image allow-list.
func ValidateImage(filename, declaredType string) error {
	extension := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[extension]; !ok {
		return apperr.UnsupportedMediaType(opSave, "unsupported_extension",
			fmt.Sprintf("file %q must be a jpeg, jpg, png or gif image", filename))
	}
	mediaType, _, err := mime.ParseMediaType(declaredType)
	if err != nil {
		mediaType = declaredType
	}
	if _, ok := allowedMediaTypes[strings.ToLower(strings.TrimSpace(mediaType))]; !ok {
		return apperr.UnsupportedMediaType(opSave, "unsupported_media_type",
			fmt.Sprintf("file %q has unsupported type %q", filename, declaredType))
	}
	return nil
}

// Save validates and persists a single uploaded file.
func (s *Store) Save(ctx context.Context, header *multipart.FileHeader) (StoredFile, error) {
	if header == nil {
		return StoredFile{}, apperr.Validation(opSave, "missing_file", "an image file is required", nil)
	}
	if err := ValidateImage(header.Filename, header.Header.Get("Content-Type")); err != nil {
		return StoredFile{}, err
	}
	return s.write(ctx, header)
}

// SaveAll validates every file before writing any of them. When a write fails
// part-way, files already written by this call are removed again.
func (s *Store) SaveAll(ctx context.Context, headers []*multipart.FileHeader) ([]StoredFile, error) {
	if len(headers) == 0 {
		return nil, apperr.Validation(opSaveAll, "missing_files", "at least one image file is required", nil)
	}
	if len(headers) > s.maxFiles {
		return nil, apperr.Validation(opSaveAll, "too_many_files",
			fmt.Sprintf("at most %d files may be uploaded at once", s.maxFiles), nil)
	}
	for _, header := range headers {
		if err := ValidateImage(header.Filename, header.Header.Get("Content-Type")); err != nil {
			return nil, err
		}
	}

	stored := make([]StoredFile, 0, len(headers))
	for _, header := range headers {
		file, err := s.write(ctx, header)
		if err != nil {
			if cleanupErr := s.remove(stored); cleanupErr != nil {
				s.logger.Warn("failed to remove partial upload",
					zap.String("operation", opSaveAll),
					zap.Error(cleanupErr))
			}
			return nil, err
		}
		stored = append(stored, file)
	}
	return stored, nil
}

// FileSystem exposes the stored files for static serving, without directory listings.
func (s *Store) FileSystem() http.FileSystem {
	return fileOnlyFS{inner: afero.NewHttpFs(s.fs)}
}

func (s *Store) write(ctx context.Context, header *multipart.FileHeader) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, apperr.Storage(opSave, "cancelled", err)
	}
	name, err := s.uniqueName(header.Filename)
	if err != nil {
		return StoredFile{}, apperr.Storage(opSave, "name_generation_failed", err)
	}

	source, err := header.Open()
	if err != nil {
		s.logError("open_failed", err, header.Filename)
		return StoredFile{}, apperr.Storage(opSave, "open_failed", err)
	}
	defer source.Close()

	destination, err := s.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		s.logError("create_failed", err, name)
		return StoredFile{}, apperr.Storage(opSave, "create_failed", err)
	}
	written, copyErr := io.Copy(destination, source)
	closeErr := destination.Close()
	if err := multierr.Append(copyErr, closeErr); err != nil {
		s.logError("write_failed", err, name)
		_ = s.fs.Remove(name)
		return StoredFile{}, apperr.Storage(opSave, "write_failed", err)
	}

	return StoredFile{
		Filename:     name,
		OriginalName: header.Filename,
		URL:          path.Join(s.publicPrefix, name),
		Size:         written,
	}, nil
}

func (s *Store) remove(files []StoredFile) error {
	var errs error
	for _, file := range files {
		if err := s.fs.Remove(file.Filename); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", file.Filename, err))
		}
	}
	return errs
}

// uniqueName builds "<unix-millis>-<random>-<original>" so concurrent uploads
// of the same file never collide.
func (s *Store) uniqueName(original string) (string, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s-%s", s.clock().UnixMilli(), hex.EncodeToString(token[:4]), sanitizeName(original)), nil
}

func sanitizeName(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "_" {
		return "image"
	}
	return base
}

func (s *Store) logError(reason string, err error, filename string) {
	s.logger.Error("uploads store error",
		zap.String("operation", opSave),
		zap.String("reason", reason),
		zap.String("filename", filename),
		zap.Error(err))
}

type fileOnlyFS struct {
	inner http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.inner.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
