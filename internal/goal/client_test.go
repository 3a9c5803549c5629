package goal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(goalURL, imageURL string) *Client {
	return NewClient(ClientConfig{
		GoalURL:  goalURL,
		ImageURL: imageURL,
		Timeout:  5 * time.Second,
		Logger:   testLogger(),
	})
}

func TestCreateGoal_PostsJSONAndReturnsOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ChatInput != "накопить на машину" || req.SessionID != "session_1_abc" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`[{"output":"raw-goal-json"}]`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, srv.URL).CreateGoal(context.Background(), "накопить на машину", "session_1_abc")
	if err != nil {
		t.Fatal(err)
	}
	if out != "raw-goal-json" {
		t.Errorf("output = %q", out)
	}
}

func TestCreateGoal_EmptyArrayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, srv.URL).CreateGoal(context.Background(), "x", "s"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestCreateGoal_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, srv.URL).CreateGoal(context.Background(), "x", "s"); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestGenerateImage_ObjectShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"imageUrl key", `{"imageUrl":"https://img/1.png"}`, "https://img/1.png"},
		{"url key", `{"url":"https://img/2.png"}`, "https://img/2.png"},
		{"image key", `{"image":"https://img/3.png"}`, "https://img/3.png"},
		{"bare string", `"https://img/4.png"`, "https://img/4.png"},
		{"unknown shape", `{"weird":true}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got := newTestClient(srv.URL, srv.URL).GenerateImage(context.Background(), "машина")
			if got != tc.want {
				t.Errorf("url = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateImage_FailureDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if got := newTestClient(srv.URL, srv.URL).GenerateImage(context.Background(), "x"); got != "" {
		t.Errorf("expected empty url on failure, got %q", got)
	}
}
