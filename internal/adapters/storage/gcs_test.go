package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestGCSUploadAbortsOnReadError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"leads_documents/a.pdf","bucket":"crm"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	client, err := gcs.NewClient(ctx,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	svc := &GCSService{client: client, baseURL: srv.URL}
	readErr := errors.New("connection reset")

	err = svc.UploadFile(ctx, "crm", "leads_documents/a.pdf", "application/pdf", failingReader{err: readErr}, 10)
	if !errors.Is(err, readErr) {
		t.Fatalf("expected read error, got %v", err)
	}
	if n := requests.Load(); n != 0 {
		t.Fatalf("expected no object to be written, server saw %d requests", n)
	}
}
