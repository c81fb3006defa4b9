package upload

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000000")

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cloud    string
		preset   string
		endpoint string
		wantErr  bool
		wantURL  string
	}{
		{"unconfigured", "", "", "", true, ""},
		{"missing preset", "demo", "", "", true, ""},
		{"cloud name", "demo", "p", "", false, "https://api.cloudinary.com/v1_1/demo/image/upload"},
		{"endpoint override", "", "p", "http://local/upload", false, "http://local/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New(tt.cloud, tt.preset, tt.endpoint)
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Fatalf("err = %v, want ErrUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.url != tt.wantURL {
				t.Errorf("url = %q, want %q", u.url, tt.wantURL)
			}
		})
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("upload_preset") != "listing" {
			t.Errorf("preset = %q", r.FormValue("upload_preset"))
		}
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else if hdr.Filename != "front.png" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.test/front.png"}`))
	}))
	defer srv.Close()

	u, err := New("", "listing", srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := u.Upload(context.Background(), "/tmp/front.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got != "https://cdn.test/front.png" {
		t.Errorf("url = %q", got)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	u, _ := New("", "p", "http://127.0.0.1:1")
	_, err := u.Upload(context.Background(), "a.txt", bytes.NewReader([]byte("hello world")))
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v, want ErrNotImage", err)
	}
}

func TestUploadHostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	u, _ := New("", "p", srv.URL)
	_, err := u.Upload(context.Background(), "a.png", bytes.NewReader(pngHeader))
	if err == nil {
		t.Fatal("expected error")
	}
}
