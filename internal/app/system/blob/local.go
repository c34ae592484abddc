package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrInvalidToken is returned when a signed URL token fails verification
// or has expired.
var ErrInvalidToken = errors.New("blob: invalid or expired token")

// token is the payload sealed into a signed URL.
type token struct {
	Path      string `json:"p"`
	ExpiresAt int64  `json:"e"`
}

// Local stores files on disk under Root and signs URL tokens with an
// HMAC key. URLs point at BaseURL + "/files/" + token; the files feature
// redeems them via Open.
type Local struct {
	root       string
	baseURL    string
	codec      *securecookie.SecureCookie
	defaultTTL time.Duration
}

// NewLocal creates a disk-backed store. signKey should be 32 or 64 random
// bytes; defaultTTL bounds signed URLs when the caller does not override it.
func NewLocal(root, baseURL string, signKey []byte, defaultTTL time.Duration) (*Local, error) {
	if root == "" {
		return nil, errors.New("blob: root directory is required")
	}
	if len(signKey) < 32 {
		return nil, errors.New("blob: sign key must be at least 32 bytes")
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	codec := securecookie.New(signKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(0) // expiry is carried in the token itself
	return &Local{
		root:       root,
		baseURL:    strings.TrimRight(baseURL, "/"),
		codec:      codec,
		defaultTTL: defaultTTL,
	}, nil
}

// fullPath maps a key to a location under root, rejecting traversal.
func (l *Local) fullPath(p string) (string, error) {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return "", errors.New("blob: empty path")
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Put(ctx context.Context, p string, r io.Reader, opts *PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.fullPath(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("blob: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("blob: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("blob: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blob: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("blob: rename: %w", err)
	}
	return nil
}

func (l *Local) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.fullPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete: %w", err)
	}
	return nil
}

func (l *Local) SignedURL(ctx context.Context, p string, opts *SignOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := l.fullPath(p); err != nil {
		return "", err
	}
	ttl := l.defaultTTL
	if opts != nil && opts.Expires > 0 {
		ttl = opts.Expires
	}
	tok := token{
		Path:      p,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	sealed, err := l.codec.Encode("blob", tok)
	if err != nil {
		return "", fmt.Errorf("blob: sign: %w", err)
	}
	return l.baseURL + "/files/" + sealed, nil
}

// Open verifies a URL token and opens the underlying file. The caller
// owns the returned ReadCloser.
func (l *Local) Open(sealed string) (io.ReadCloser, error) {
	var tok token
	if err := l.codec.Decode("blob", sealed, &tok); err != nil {
		return nil, ErrInvalidToken
	}
	if time.Now().Unix() > tok.ExpiresAt {
		return nil, ErrInvalidToken
	}
	full, err := l.fullPath(tok.Path)
	if err != nil {
		return nil, ErrInvalidToken
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("blob: open: %w", err)
	}
	return f, nil
}

var _ Store = (*Local)(nil)
