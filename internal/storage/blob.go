package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"digitronix/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 10 << 20

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/public/uploads/"

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
}

// BlobStore keeps uploaded images in a directory of an afero filesystem.
type BlobStore struct {
	fs      afero.Fs
	dir     string
	baseURL string
	now     func() time.Time
}

func NewBlobStore(fs afero.Fs, dir, baseURL string) (*BlobStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %q: %w", dir, err)
	}
	return &BlobStore{
		fs:      fs,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// NewOSBlobStore stores blobs on the local disk.
func NewOSBlobStore(dir, baseURL string) (*BlobStore, error) {
	return NewBlobStore(afero.NewOsFs(), dir, baseURL)
}

// SaveImage stores a PNG or JPEG and returns its public URL. The type is
// sniffed from the content; the client's declared type is ignored.
func (s *BlobStore) SaveImage(ctx context.Context, originalName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", domain.ErrImageRequired
	}
	if len(data) > MaxImageSize {
		return "", domain.Validation("image exceeds %d bytes", MaxImageSize)
	}

	ext, ok := imageExtensions[mimetype.Detect(data).String()]
	if !ok {
		return "", domain.ErrInvalidImageType
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.fileName(originalName, ext)
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return s.baseURL + URLPrefix + name, nil
}

// RemoveImage deletes a file returned by SaveImage. URLs that point
// elsewhere and files that are already gone are ignored.
func (s *BlobStore) RemoveImage(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+URLPrefix)
	if !ok || name == "" || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image %q: %w", name, err)
	}
	return nil
}

// fileName builds "<name-with-dashes>-<unix millis>.<ext>".
func (s *BlobStore) fileName(originalName, ext string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" {
		base = "image"
	}
	base = strings.Join(strings.Fields(base), "-")
	return base + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "." + ext
}

// Handler serves stored files. Directory listings are not exposed.
func (s *BlobStore) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dir))
	return http.StripPrefix(URLPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}
