package blob_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aktivio/aktivio-server/internal/app/system/blob"
)

var testSignKey = []byte("0123456789abcdef0123456789abcdef")

func newLocal(t *testing.T, ttl time.Duration) *blob.Local {
	t.Helper()
	l, err := blob.NewLocal(t.TempDir(), "http://localhost:8080", testSignKey, ttl)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return l
}

func TestNewLocal_ShortKeyRejected(t *testing.T) {
	_, err := blob.NewLocal(t.TempDir(), "http://localhost", []byte("short"), 0)
	if err == nil {
		t.Fatal("expected error for short sign key")
	}
}

func TestPutAndOpenRoundTrip(t *testing.T) {
	l := newLocal(t, time.Minute)
	ctx := context.Background()

	content := "jpeg bytes go here"
	err := l.Put(ctx, "users/u1/profile.jpg", strings.NewReader(content), &blob.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	url, err := l.SignedURL(ctx, "users/u1/profile.jpg", nil)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	const prefix = "http://localhost:8080/files/"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected URL shape: %q", url)
	}

	rc, err := l.Open(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != content {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestPut_Overwrites(t *testing.T) {
	l := newLocal(t, time.Minute)
	ctx := context.Background()

	if err := l.Put(ctx, "users/u1/profile.jpg", strings.NewReader("old"), nil); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := l.Put(ctx, "users/u1/profile.jpg", strings.NewReader("new"), nil); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	url, err := l.SignedURL(ctx, "users/u1/profile.jpg", nil)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	rc, err := l.Open(strings.TrimPrefix(url, "http://localhost:8080/files/"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestDelete_ThenOpenFails(t *testing.T) {
	l := newLocal(t, time.Minute)
	ctx := context.Background()

	if err := l.Put(ctx, "posts/p1/img.png", strings.NewReader("png"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	url, err := l.SignedURL(ctx, "posts/p1/img.png", nil)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	if err := l.Delete(ctx, "posts/p1/img.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err = l.Open(strings.TrimPrefix(url, "http://localhost:8080/files/"))
	if !errors.Is(err, blob.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after delete, got %v", err)
	}
}

func TestDelete_MissingIsNoop(t *testing.T) {
	l := newLocal(t, time.Minute)
	if err := l.Delete(context.Background(), "nope/missing.bin"); err != nil {
		t.Errorf("Delete of missing file should be a no-op, got %v", err)
	}
}

func TestOpen_TamperedTokenRejected(t *testing.T) {
	l := newLocal(t, time.Minute)
	ctx := context.Background()

	if err := l.Put(ctx, "a/b.txt", strings.NewReader("x"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	url, err := l.SignedURL(ctx, "a/b.txt", nil)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	tok := strings.TrimPrefix(url, "http://localhost:8080/files/")

	if _, err := l.Open(tok + "x"); !errors.Is(err, blob.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestOpen_ExpiredTokenRejected(t *testing.T) {
	l := newLocal(t, time.Nanosecond)
	ctx := context.Background()

	if err := l.Put(ctx, "a/b.txt", strings.NewReader("x"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	url, err := l.SignedURL(ctx, "a/b.txt", &blob.SignOptions{Expires: time.Nanosecond})
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // expiry has one-second resolution

	tok := strings.TrimPrefix(url, "http://localhost:8080/files/")
	if _, err := l.Open(tok); !errors.Is(err, blob.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	l := newLocal(t, time.Minute)
	if err := l.Put(context.Background(), "", strings.NewReader("x"), nil); err == nil {
		t.Error("expected error for empty Put path")
	}
	if _, err := l.SignedURL(context.Background(), "", nil); err == nil {
		t.Error("expected error for empty SignedURL path")
	}
}
