package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
)

var keyPattern = regexp.MustCompile(`^leads_documents/1700000000000-([A-Za-z0-9._-]+)_[0-9a-f]{8}(\.[a-z0-9]+)?$`)

func TestObjectKeyKeepsExtensionAndSanitizesBase(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	cases := []struct {
		fileName string
		base     string
		ext      string
	}{
		{"Contract Final.PDF", "Contract_Final", ".pdf"},
		{"../../etc/passwd", "passwd", ""},
		{`C:\Users\asha\id card.jpeg`, "id_card", ".jpeg"},
		{"", "document", ""},
		{"archive.tar.gz", "archive.tar", ".gz"},
	}

	for _, tc := range cases {
		key := ObjectKey(DefaultFolder, tc.fileName, now)
		m := keyPattern.FindStringSubmatch(key)
		if m == nil {
			t.Fatalf("%q: key %q does not match expected layout", tc.fileName, key)
		}
		if m[1] != tc.base || m[2] != tc.ext {
			t.Fatalf("%q: expected base %q ext %q, got %q %q", tc.fileName, tc.base, tc.ext, m[1], m[2])
		}
	}
}

func TestObjectKeyIsUniquePerCall(t *testing.T) {
	now := time.Now()
	if ObjectKey(DefaultFolder, "a.pdf", now) == ObjectKey(DefaultFolder, "a.pdf", now) {
		t.Fatal("expected distinct keys for the same name and instant")
	}
}

func TestUploadStoresObjectAndReturnsPublicURL(t *testing.T) {
	svc := storage.NewMemoryService("https://files.example.com")
	store := New(svc, "crm", "", nil, logger.Discard())

	ref, err := store.Upload(context.Background(), FileUpload{
		Reader:      strings.NewReader("%PDF-1.7 body"),
		Size:        13,
		FileName:    "offer.pdf",
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !strings.HasPrefix(ref.Key, "leads_documents/") || !strings.HasSuffix(ref.Key, ".pdf") {
		t.Fatalf("unexpected key %q", ref.Key)
	}
	if ref.URL != "https://files.example.com/crm/"+ref.Key {
		t.Fatalf("unexpected url %q", ref.URL)
	}
	obj, ok := svc.Object("crm", ref.Key)
	if !ok || string(obj.Data) != "%PDF-1.7 body" {
		t.Fatalf("expected stored bytes, got %+v", obj)
	}
}

func TestUploadFailureIsStorageError(t *testing.T) {
	svc := storage.NewMemoryService("")
	svc.FailUploads = errors.New("bucket unavailable")
	store := New(svc, "crm", "", nil, logger.Discard())

	_, err := store.Upload(context.Background(), FileUpload{Reader: strings.NewReader("x"), Size: 1, FileName: "a.png", ContentType: "image/png"})
	if !apperr.Is(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestSniffDetectsGenericContentType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	upload, err := Sniff(FileUpload{Reader: bytes.NewReader(png), Size: int64(len(png)), ContentType: "application/octet-stream"})
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if upload.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", upload.ContentType)
	}

	data, _ := io.ReadAll(upload.Reader)
	if !bytes.Equal(data, png) {
		t.Fatal("expected sniffed reader to yield the full content")
	}
}

func TestSniffKeepsDeclaredType(t *testing.T) {
	upload, _ := Sniff(FileUpload{Reader: strings.NewReader("hello"), ContentType: "application/pdf"})
	if upload.ContentType != "application/pdf" {
		t.Fatalf("expected declared type to be kept, got %q", upload.ContentType)
	}
}

func TestRemoveIgnoresMissingObject(t *testing.T) {
	store := New(storage.NewMemoryService(""), "crm", "", nil, logger.Discard())
	if err := store.Remove(context.Background(), Reference{Key: "leads_documents/missing.pdf"}); err != nil {
		t.Fatalf("expected missing object to be ignored, got %v", err)
	}
}
