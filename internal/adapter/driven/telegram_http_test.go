package driven

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTelegramHTTPAdapter_Upload(t *testing.T) {
	t.Run("uploads document and returns handle", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendDocument") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			if err := r.ParseMultipartForm(10 << 20); err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}
			if got := r.FormValue("chat_id"); got != "12345" {
				t.Errorf("expected chat_id 12345, got %q", got)
			}

			file, header, err := r.FormFile("document")
			if err != nil {
				t.Fatalf("missing document part: %v", err)
			}
			defer file.Close()
			if header.Filename != "movie.mp4" {
				t.Errorf("expected filename movie.mp4, got %q", header.Filename)
			}
			if got := header.Header.Get("Content-Type"); got != "video/mp4" {
				t.Errorf("expected part content type video/mp4, got %q", got)
			}
			data, _ := io.ReadAll(file)
			if string(data) != "video-bytes" {
				t.Errorf("unexpected payload %q", string(data))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true,"result":{"message_id":42,"document":{"file_id":"remote-abc"}}}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		handle, err := adapter.Upload(context.Background(), "movie.mp4", "video/mp4", []byte("video-bytes"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if handle.FileID != "remote-abc" {
			t.Errorf("expected file id remote-abc, got %q", handle.FileID)
		}
		if handle.MessageID != 42 {
			t.Errorf("expected message id 42, got %d", handle.MessageID)
		}
	})

	t.Run("returns ErrUploadFailed on api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		_, err := adapter.Upload(context.Background(), "movie.mp4", "video/mp4", []byte("data"))
		if !errors.Is(err, storedfile.ErrUploadFailed) {
			t.Errorf("expected ErrUploadFailed, got %v", err)
		}
	})

	t.Run("returns ErrUploadFailed when api omits file id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		_, err := adapter.Upload(context.Background(), "movie.mp4", "video/mp4", []byte("data"))
		if !errors.Is(err, storedfile.ErrUploadFailed) {
			t.Errorf("expected ErrUploadFailed, got %v", err)
		}
	})
}

func TestTelegramHTTPAdapter_FetchByHandle(t *testing.T) {
	t.Run("resolves path then downloads bytes", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/bottest-token/getFile", func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("file_id"); got != "remote-abc" {
				t.Errorf("expected file_id remote-abc, got %q", got)
			}
			w.Write([]byte(`{"ok":true,"result":{"file_path":"documents/file_7.mp4"}}`))
		})
		mux.HandleFunc("/file/bottest-token/documents/file_7.mp4", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("video-bytes"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		data, err := adapter.FetchByHandle(context.Background(), storedfile.RemoteHandle{FileID: "remote-abc", MessageID: 42})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "video-bytes" {
			t.Errorf("unexpected payload %q", string(data))
		}
	})

	t.Run("returns ErrRemoteUnavailable when getFile fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"description":"Bad Request: invalid file_id"}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		_, err := adapter.FetchByHandle(context.Background(), storedfile.RemoteHandle{FileID: "bogus", MessageID: 1})
		if !errors.Is(err, storedfile.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})

	t.Run("returns ErrRemoteUnavailable when download fails", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/bottest-token/getFile", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":true,"result":{"file_path":"documents/gone.mp4"}}`))
		})
		mux.HandleFunc("/file/bottest-token/documents/gone.mp4", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		_, err := adapter.FetchByHandle(context.Background(), storedfile.RemoteHandle{FileID: "remote-abc", MessageID: 42})
		if !errors.Is(err, storedfile.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})
}

func TestTelegramHTTPAdapter_Delete(t *testing.T) {
	t.Run("deletes the carrying message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/deleteMessage") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("message_id"); got != "42" {
				t.Errorf("expected message_id 42, got %q", got)
			}
			if got := r.URL.Query().Get("chat_id"); got != "12345" {
				t.Errorf("expected chat_id 12345, got %q", got)
			}
			w.Write([]byte(`{"ok":true,"result":true}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		err := adapter.Delete(context.Background(), storedfile.RemoteHandle{FileID: "remote-abc", MessageID: 42})
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("returns ErrRemoteUnavailable on api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"description":"Bad Request: message to delete not found"}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		err := adapter.Delete(context.Background(), storedfile.RemoteHandle{FileID: "remote-abc", MessageID: 42})
		if !errors.Is(err, storedfile.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})
}

func TestTelegramHTTPAdapter_Unconfigured(t *testing.T) {
	t.Run("fails fast without touching the network", func(t *testing.T) {
		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "", "", testLogger())

		ctx := context.Background()
		handle := storedfile.RemoteHandle{FileID: "remote-abc", MessageID: 42}

		if _, err := adapter.Upload(ctx, "a.bin", "", nil); !errors.Is(err, storedfile.ErrUnconfigured) {
			t.Errorf("Upload: expected ErrUnconfigured, got %v", err)
		}
		if _, err := adapter.FetchByHandle(ctx, handle); !errors.Is(err, storedfile.ErrUnconfigured) {
			t.Errorf("FetchByHandle: expected ErrUnconfigured, got %v", err)
		}
		if err := adapter.Delete(ctx, handle); !errors.Is(err, storedfile.ErrUnconfigured) {
			t.Errorf("Delete: expected ErrUnconfigured, got %v", err)
		}
		if err := adapter.Ping(ctx); !errors.Is(err, storedfile.ErrUnconfigured) {
			t.Errorf("Ping: expected ErrUnconfigured, got %v", err)
		}

		if hits.Load() != 0 {
			t.Errorf("expected zero network hits, got %d", hits.Load())
		}
	})
}

func TestTelegramHTTPAdapter_Ping(t *testing.T) {
	t.Run("succeeds when getMe responds ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/getMe") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true}}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		if err := adapter.Ping(context.Background()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("returns ErrRemoteUnavailable when credentials are rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
		}))
		defer server.Close()

		adapter := NewTelegramHTTPAdapter(server.URL, "test-token", "12345", testLogger())

		err := adapter.Ping(context.Background())
		if !errors.Is(err, storedfile.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})
}
