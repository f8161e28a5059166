package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
	"github.com/JaimeStill/smart-ocr/pkg/storage"
)

// SchemeFile is the URI scheme of filesystem objects.
const SchemeFile = "file"

// SignedOpener is implemented by backends whose signed URLs are served by
// the gateway rather than by the storage provider.
type SignedOpener interface {
	OpenSigned(ctx context.Context, objectPath, expires, signature string) (*os.File, error)
}

// Filesystem stores objects under basePath/bucket/key.
type Filesystem struct {
	basePath   string
	bucket     string
	publicURL  string
	signingKey []byte
	now        func() time.Time
	logger     *slog.Logger
}

// NewFilesystem resolves the base path. Directory creation is deferred to Start.
func NewFilesystem(cfg *storage.Config, logger *slog.Logger) (*Filesystem, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return &Filesystem{
		basePath:   absPath,
		bucket:     cfg.Bucket,
		publicURL:  strings.TrimSuffix(cfg.PublicURL, "/"),
		signingKey: []byte(cfg.SigningKey),
		now:        time.Now,
		logger:     logger.With("system", "storage", "backend", "filesystem"),
	}, nil
}

func (f *Filesystem) Start(lc *lifecycle.Coordinator) error {
	dir := filepath.Join(f.basePath, f.bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	f.logger.Info("storage initialized", "base_path", f.basePath, "bucket", f.bucket)
	return nil
}

func (f *Filesystem) Put(ctx context.Context, r io.Reader, key, contentType string) (string, error) {
	path, err := f.fullPath(f.bucket, key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}

	uri := URI{Scheme: SchemeFile, Bucket: f.bucket, Key: key}.String()
	f.logger.Debug("object stored", "uri", uri, "content_type", contentType)
	return uri, nil
}

func (f *Filesystem) Fetch(ctx context.Context, uri, localPath string) error {
	src, err := f.resolve(uri)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return mapFSError(err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}

	if _, err := io.Copy(out, contextReader{ctx: ctx, r: in}); err != nil {
		out.Close()
		return fmt.Errorf("copy object: %w", err)
	}
	return out.Close()
}

// SignedURL returns publicURL/bucket/key?expires=<unix>&signature=<hmac>.
func (f *Filesystem) SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error) {
	u, err := f.parse(uri)
	if err != nil {
		return "", err
	}
	if _, err := f.fullPath(u.Bucket, u.Key); err != nil {
		return "", err
	}

	expires := strconv.FormatInt(f.now().Add(ttl).Unix(), 10)
	objectPath := u.Bucket + "/" + u.Key

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", f.sign(objectPath, expires))

	return fmt.Sprintf("%s/%s?%s", f.publicURL, objectPath, q.Encode()), nil
}

// OpenSigned verifies a signature issued by SignedURL and opens the object.
// objectPath is bucket/key as it appears in the URL path.
func (f *Filesystem) OpenSigned(ctx context.Context, objectPath, expires, signature string) (*os.File, error) {
	want := f.sign(objectPath, expires)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if f.now().Unix() > exp {
		return nil, ErrExpired
	}

	bucket, key, ok := strings.Cut(objectPath, "/")
	if !ok {
		return nil, ErrInvalidKey
	}
	path, err := f.fullPath(bucket, key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, mapFSError(err)
	}
	return file, nil
}

func (f *Filesystem) Delete(ctx context.Context, uri string) error {
	path, err := f.resolve(uri)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return mapFSError(err)
	}

	dir := filepath.Dir(path)
	root := filepath.Join(f.basePath, f.bucket)
	if dir != root && strings.HasPrefix(dir, root) {
		if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
			if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
				f.logger.Warn("failed to remove empty directory", "dir", dir, "error", err)
			}
		}
	}
	return nil
}

func (f *Filesystem) sign(objectPath, expires string) string {
	mac := hmac.New(sha256.New, f.signingKey)
	mac.Write([]byte(objectPath))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (f *Filesystem) parse(uri string) (URI, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return URI{}, err
	}
	if u.Scheme != SchemeFile {
		return URI{}, fmt.Errorf("%w: scheme %q not served by filesystem backend", ErrInvalidURI, u.Scheme)
	}
	return u, nil
}

func (f *Filesystem) resolve(uri string) (string, error) {
	u, err := f.parse(uri)
	if err != nil {
		return "", err
	}
	return f.fullPath(u.Bucket, u.Key)
}

func (f *Filesystem) fullPath(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", ErrInvalidKey
	}

	cleaned := filepath.Clean(filepath.Join(bucket, key))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(key) || filepath.IsAbs(bucket) {
		return "", ErrInvalidKey
	}

	full := filepath.Join(f.basePath, cleaned)
	if !strings.HasPrefix(full, f.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return full, nil
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return err
	}
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
