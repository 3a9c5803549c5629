package voice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bankassist/internal/config"
	"bankassist/internal/domain"
)

func TestNewRecognizer_NoKeyUnavailable(t *testing.T) {
	_, err := NewRecognizer(config.RecognizerConfig{}, testLogger())
	if !errors.Is(err, domain.ErrRecognizerUnavailable) {
		t.Fatalf("err = %v, want recognizer unavailable", err)
	}
}

func TestWhisperRecognize_SendsMultipartAndDecodesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "ru" {
			t.Errorf("language = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "dictation.webm" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"тестовая фраза","language":"ru","duration":1.2}`))
	}))
	defer srv.Close()

	rec, err := NewRecognizer(config.RecognizerConfig{
		APIBase:  srv.URL,
		APIKey:   "test-key",
		Language: "ru",
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	text, err := rec.Recognize(context.Background(), []byte("opus-bytes"), "dictation.webm")
	if err != nil {
		t.Fatal(err)
	}
	if text != "тестовая фраза" {
		t.Errorf("text = %q", text)
	}
}

func TestWhisperRecognize_APIErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec, err := NewRecognizer(config.RecognizerConfig{APIBase: srv.URL, APIKey: "k"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Recognize(context.Background(), []byte("x"), "a.webm"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
