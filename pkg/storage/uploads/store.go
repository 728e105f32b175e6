package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/marketdesk/marketdesk/pkg/config"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/static/uploads/"

const (
	sniffLen        = 512
	maxCollisionTry = 100
	timestampLayout = "2006_01_02_15_04_05"
	// maxStemLen keeps "{stem}_{timestamp}_{n}{ext}" well under the 255-byte file name limit.
	maxStemLen = 100
)

var (
	unsafeChars       = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	allowedExtensions = map[string]struct{}{
		".png":  {},
		".jpg":  {},
		".jpeg": {},
		".gif":  {},
		".webp": {},
	}
)

// Store writes item images to a local directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
	logger   *logger.Logger
}

// NewStore creates the upload directory if needed.
func NewStore(cfg config.UploadConfig, logg *logger.Logger) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Store{
		dir:      dir,
		maxBytes: cfg.MaxBytes(),
		now:      time.Now,
		logger:   logg,
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// URL returns the public path for a stored file name.
func (s *Store) URL(name string) string {
	if name == "" {
		return ""
	}
	return URLPrefix + name
}

// Save stores content under "{item}_{UTC timestamp}{ext}" and returns the
// file name. Unsupported or oversized files are validation errors; disk
// failures are dependency errors.
func (s *Store) Save(ctx context.Context, itemName, originalName string, content io.Reader) (string, error) {
	if content == nil {
		return "", pkgerrors.Invalid("image", "image file is required")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", pkgerrors.Invalid("image", "image must be a png, jpg, jpeg, gif or webp file")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upload")
	}
	head = head[:n]
	if n == 0 {
		return "", pkgerrors.Invalid("image", "image file is empty")
	}
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", pkgerrors.Invalid("image", "uploaded file is not an image")
	}

	base := SanitizeName(itemName) + "_" + s.now().UTC().Format(timestampLayout)
	file, name, err := s.create(base, ext)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create upload file")
	}

	limited := io.LimitReader(io.MultiReader(bytes.NewReader(head), content), s.maxBytes+1)
	written, copyErr := io.Copy(file, limited)
	closeErr := file.Close()

	if copyErr == nil && written > s.maxBytes {
		s.remove(ctx, name)
		return "", pkgerrors.Invalid("image", fmt.Sprintf("image must be at most %d MB", s.maxBytes>>20))
	}
	if copyErr != nil || closeErr != nil {
		s.remove(ctx, name)
		cause := copyErr
		if cause == nil {
			cause = closeErr
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "write upload file")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{"file": name, "bytes": written}), "image stored")
	}
	return name, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete upload file")
	}
	return nil
}

func (s *Store) create(base, ext string) (*os.File, string, error) {
	for i := 0; i < maxCollisionTry; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		file, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s%s", base, ext)
}

func (s *Store) remove(ctx context.Context, name string) {
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && s.logger != nil {
		s.logger.Error(s.logger.WithField(ctx, "file", name), "failed to remove partial upload", err)
	}
}

func (s *Store) pathFor(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", pkgerrors.Invalid("image", "invalid image file name")
	}
	return filepath.Join(s.dir, name), nil
}

// SanitizeName replaces every character outside [a-zA-Z0-9_-] with "_" and
// truncates the result to maxStemLen bytes.
func SanitizeName(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	if len(safe) > maxStemLen {
		safe = safe[:maxStemLen]
	}
	return safe
}
