package drivestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) (*Store, func()) {
	t.Helper()

	ts := httptest.NewServer(handler)

	svc, err := drive.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(ts.URL),
	)
	if err != nil {
		ts.Close()
		t.Fatalf("new drive service: %v", err)
	}

	return NewWithService(svc, "test-folder"), ts.Close
}

func TestUpload_ReturnsViewLink(t *testing.T) {
	store, closeFn := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-1","webViewLink":"https://drive/x"}`))
	})
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	link, err := store.Upload(ctx, []byte("jpeg-bytes"), "image/jpeg", "Green_Mart_2025-01-02_10-00-00.jpg")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if link != "https://drive/x" {
		t.Fatalf("link = %q, want https://drive/x", link)
	}
}

func TestUpload_EmptyLinkIsNotAnError(t *testing.T) {
	store, closeFn := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-2"}`))
	})
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	link, err := store.Upload(ctx, []byte("jpeg-bytes"), "image/jpeg", "shop.jpg")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if link != "" {
		t.Fatalf("link = %q, want empty", link)
	}
}

func TestUpload_ServerError(t *testing.T) {
	store, closeFn := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
	})
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := store.Upload(ctx, []byte("jpeg-bytes"), "image/jpeg", "shop.jpg"); err == nil {
		t.Fatalf("expected error for failed upload")
	}
}
