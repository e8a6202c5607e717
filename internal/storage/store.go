// AngelaMos | 2026
// store.go

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

const assetPrefix = "assets"

var (
	ErrNotImage = fmt.Errorf("%w: file is not an image", core.ErrInvalidInput)
	ErrTooLarge = fmt.Errorf("%w: file exceeds upload limit", core.ErrInvalidInput)
)

// Object describes a stored file.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Store keeps uploaded images on an afero filesystem and serves them back
// under a public base URL.
type Store struct {
	fs            afero.Fs
	publicBaseURL string
	maxBytes      int64
}

func New(fsys afero.Fs, cfg config.StorageConfig) *Store {
	return &Store{
		fs:            fsys,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:      cfg.MaxUploadBytes,
	}
}

// NewDisk roots the store at cfg.Root on the local disk.
func NewDisk(cfg config.StorageConfig) (*Store, error) {
	if err := afero.NewOsFs().MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return New(afero.NewBasePathFs(afero.NewOsFs(), cfg.Root), cfg), nil
}

// PutImage stores one uploaded image as assets/<uuid>-<index>.<ext>. The
// content type is sniffed from the bytes; the client supplied one is
// ignored.
func (s *Store) PutImage(ctx context.Context, r io.Reader, index int) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := s.maxBytes
	if limit <= 0 {
		limit = 20 << 20
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, ErrNotImage
	}

	key := fmt.Sprintf("%s/%s-%d%s", assetPrefix, uuid.NewString(), index, mime.Extension())

	if err := s.fs.MkdirAll(assetPrefix, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}

	if err := afero.WriteReader(s.fs, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}

	return &Object{
		Key:         key,
		URL:         s.URL(key),
		ContentType: mime.String(),
		Size:        int64(len(data)),
	}, nil
}

func (s *Store) URL(key string) string {
	return s.publicBaseURL + "/" + key
}

// KeyFromURL reverses URL for objects this store handed out.
func (s *Store) KeyFromURL(url string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}

	key := cleanKey(strings.TrimPrefix(url, prefix))
	return key, key != ""
}

func (s *Store) Delete(_ context.Context, key string) error {
	key = cleanKey(key)
	if key == "" {
		return core.ErrNotFound
	}

	if err := s.fs.Remove(key); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, core.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// ServeHTTP serves a stored object. It expects to be mounted on a chi
// wildcard route such as /files/*.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := cleanKey(chi.URLParam(r, "*"))
	if key == "" {
		core.NotFound(w, "File")
		return
	}

	f, err := s.fs.Open(key)
	if err != nil {
		core.NotFound(w, "File")
		return
	}
	defer f.Close() //nolint:errcheck // read-only handle

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		core.NotFound(w, "File")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func cleanKey(key string) string {
	key = path.Clean("/" + key)
	key = strings.TrimPrefix(key, "/")
	if key == "." {
		return ""
	}
	return key
}
