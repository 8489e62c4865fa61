package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/synthlab/launcher/internal/errs"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "synthlab-launcher" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"id": "1.20.3"}`))
	}))
	defer srv.Close()

	client := NewClient()
	var got struct {
		ID string `json:"id"`
	}
	if err := client.GetJSON(context.Background(), srv.URL, &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got.ID != "1.20.3" {
		t.Errorf("decoded id = %q, want 1.20.3", got.ID)
	}
}

func TestGetJSONErrorKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/garbage":
			w.Write([]byte("<html>not json</html>"))
		}
	}))
	defer srv.Close()

	client := NewClient()
	var v any

	if err := client.GetJSON(context.Background(), srv.URL+"/missing", &v); errs.KindOf(err) != errs.KindNetwork {
		t.Errorf("404 error kind = %v, want network", errs.KindOf(err))
	}
	if err := client.GetJSON(context.Background(), srv.URL+"/garbage", &v); errs.KindOf(err) != errs.KindParse {
		t.Errorf("bad payload error kind = %v, want parse", errs.KindOf(err))
	}
}

func TestGetCancelledRequestReportsCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient()
	_, err := client.Get(ctx, srv.URL)
	if !errs.IsCancelled(err) {
		t.Errorf("cancelled request error kind = %v, want cancelled", errs.KindOf(err))
	}
}

func TestDownloadFileWithProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "sub", "dir", "client.jar")

	var lastWritten, lastTotal int64
	client := NewClient()
	err := client.DownloadFile(context.Background(), srv.URL, dest, func(written, total int64) {
		if written < lastWritten {
			t.Errorf("progress went backwards: %d -> %d", lastWritten, written)
		}
		lastWritten, lastTotal = written, total
	})
	if err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("downloaded content does not match payload")
	}
	if lastWritten != int64(len(payload)) || lastTotal != int64(len(payload)) {
		t.Errorf("final progress = (%d, %d), want (%d, %d)", lastWritten, lastTotal, len(payload), len(payload))
	}
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	var calls int
	pw := &ProgressWriter{
		Writer: &buf,
		Total:  10,
		OnUpdate: func(written, total int64) {
			calls++
			if total != 10 {
				t.Errorf("total = %d, want 10", total)
			}
		},
	}

	pw.Write([]byte("hello"))
	pw.Write([]byte("world"))

	if pw.Written != 10 || calls != 2 {
		t.Errorf("Written = %d calls = %d, want 10 and 2", pw.Written, calls)
	}
}

func TestPostFormDecodesErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer srv.Close()

	client := NewClient()
	var resp struct {
		Error string `json:"error"`
	}
	status, err := client.PostForm(context.Background(), srv.URL, map[string]string{
		"grant_type": "refresh_token",
	}, &resp)
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	if status != http.StatusBadRequest || resp.Error != "invalid_grant" {
		t.Errorf("got status %d error %q, want 400 invalid_grant", status, resp.Error)
	}
}

func TestGetFileSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Length", "12345")
	}))
	defer srv.Close()

	client := NewClient()
	size, err := client.GetFileSize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetFileSize() error = %v", err)
	}
	if size != 12345 {
		t.Errorf("size = %d, want 12345", size)
	}
}
