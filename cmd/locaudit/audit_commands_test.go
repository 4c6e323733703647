package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadImageUploads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.jpg")
	if err := os.WriteFile(path, []byte("fake image bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	uploads, err := loadImageUploads([]string{"target=" + path})
	if err != nil {
		t.Fatalf("loadImageUploads: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploads))
	}
	upload := uploads[0]
	if upload.Label != "target" {
		t.Fatalf("unexpected label %q", upload.Label)
	}
	if upload.Name != "page.jpg" {
		t.Fatalf("unexpected name %q", upload.Name)
	}
	if upload.MediaType != "image/jpeg" {
		t.Fatalf("unexpected media type %q", upload.MediaType)
	}
	decoded, err := base64.StdEncoding.DecodeString(upload.Data)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if string(decoded) != "fake image bytes" {
		t.Fatalf("payload mismatch: %q", decoded)
	}
}

func TestLoadImageUploadsRejectsMalformedArgument(t *testing.T) {
	if _, err := loadImageUploads([]string{"no-separator"}); err == nil {
		t.Fatal("expected error for missing label separator")
	}
}

func TestLoadImageUploadsMissingFile(t *testing.T) {
	if _, err := loadImageUploads([]string{"target=/does/not/exist.png"}); err == nil {
		t.Fatal("expected error for unreadable image")
	}
}

func TestMediaTypeForImage(t *testing.T) {
	cases := map[string]string{
		"shot.png":  "image/png",
		"shot.JPG":  "image/jpeg",
		"shot.webp": "image/webp",
		"shot":      "image/png",
	}
	for path, want := range cases {
		if got := mediaTypeForImage(path); got != want {
			t.Fatalf("%s: expected %s, got %s", path, want, got)
		}
	}
}

func TestParseAuditID(t *testing.T) {
	if id, err := parseAuditID(" 42 "); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, bad := range []string{"0", "-3", "abc", ""} {
		if _, err := parseAuditID(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
