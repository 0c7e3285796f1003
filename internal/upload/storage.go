// Package upload stores issue images on local disk, mirroring the
// fixed-path static serving contract: saved files are addressed as
// /uploads/<name> by clients.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Storage writes uploaded images under a base directory.
type Storage struct {
	dir          string
	maxFiles     int
	maxSizeBytes int64
}

// NewStorage ensures the upload directory exists.
func NewStorage(dir string, maxFiles int, maxSizeBytes int64) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Storage{dir: dir, maxFiles: maxFiles, maxSizeBytes: maxSizeBytes}, nil
}

// Dir returns the base directory served under /uploads.
func (s *Storage) Dir() string {
	return s.dir
}

// SaveImages persists multipart image files and returns their public
// paths. Rejects more than the configured maximum, oversized files, and
// non-image extensions.
func (s *Storage) SaveImages(files []*multipart.FileHeader) ([]string, error) {
	if len(files) > s.maxFiles {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d images allowed", s.maxFiles), nil)
	}

	paths := make([]string, 0, len(files))
	for _, header := range files {
		if s.maxSizeBytes > 0 && header.Size > s.maxSizeBytes {
			return nil, apperrors.NewValidationError("image exceeds maximum size", nil)
		}
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if _, ok := allowedExtensions[ext]; !ok {
			return nil, apperrors.NewValidationError("only image files are allowed", nil)
		}

		name := uuid.NewString() + ext
		if err := s.saveFile(header, name); err != nil {
			return nil, err
		}
		paths = append(paths, "/uploads/"+name)
	}
	return paths, nil
}

func (s *Storage) saveFile(header *multipart.FileHeader, name string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
