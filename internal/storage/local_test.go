package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/daybook-app/daybook/internal/common"
)

func TestLocalBackendRoundTrip(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	ctx := context.Background()

	body := "scanned lease agreement"
	if err := backend.Put(ctx, "ab/abcdef.pdf", strings.NewReader(body), int64(len(body)), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := backend.Get(ctx, "ab/abcdef.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(got) != body {
		t.Fatalf("got %q, want %q", got, body)
	}

	if err := backend.Delete(ctx, "ab/abcdef.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := backend.Get(ctx, "ab/abcdef.pdf"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Get after delete: got %v, want ErrNotFound", err)
	}
}

func TestLocalBackendOverwritesExistingKey(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		if err := backend.Put(ctx, "doc.txt", strings.NewReader(body), int64(len(body)), "text/plain"); err != nil {
			t.Fatalf("Put %q: %v", body, err)
		}
	}

	rc, err := backend.Get(ctx, "doc.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "second" {
		t.Fatalf("got %q, want the overwritten content", got)
	}
}

func TestLocalBackendDeleteIsIdempotent(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	if err := backend.Delete(context.Background(), "never-written.bin"); err != nil {
		t.Fatalf("Delete of a missing key: %v", err)
	}
}

func TestLocalBackendRejectsEscapingKeys(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"", "..", "../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		t.Run(key, func(t *testing.T) {
			err := backend.Put(ctx, key, strings.NewReader("x"), 1, "text/plain")
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("Put(%q): got %v, want ErrInvalidInput", key, err)
			}
			if _, err := backend.Get(ctx, key); !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("Get(%q): got %v, want ErrInvalidInput", key, err)
			}
		})
	}
}
