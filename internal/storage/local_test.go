package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorage_PutDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}

	ref, err := s.Put(ctx, "123-front.png", strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ref != "/uploads/123-front.png" {
		t.Errorf("ref = %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(dir, "123-front.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("file content = %q, %v", data, err)
	}

	if err := s.Delete(ctx, "123-front.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "123-front.png"); err != nil {
		t.Errorf("deleting a missing file should succeed: %v", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "/uploads")
	for _, key := range []string{"../secret", "a/b.png", "..", ""} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), "image/png"); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
}

func TestLocalStorage_KeyFromRef(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "/uploads")
	tests := []struct {
		ref    string
		want   string
		wantOK bool
	}{
		{"/uploads/123-front.png", "123-front.png", true},
		{"/uploads/../etc/passwd", "", false},
		{"/static/123-front.png", "", false},
		{"https://cdn.example.com/uploads/123.png", "", false},
		{"/uploads/", "", false},
	}
	for _, tt := range tests {
		got, ok := s.KeyFromRef(tt.ref)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("KeyFromRef(%q) = %q, %v; want %q, %v", tt.ref, got, ok, tt.want, tt.wantOK)
		}
	}
}
