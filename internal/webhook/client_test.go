package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"bankassist/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestSendChat_MultipartFields(t *testing.T) {
	var gotText, gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotText = r.FormValue("chatInput")
		gotSession = r.FormValue("sessionId")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"output":"привет"}]`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{ChatURL: srv.URL, Logger: testLogger()})
	reply, err := c.SendChat(context.Background(), ChatRequest{Text: "hi", SessionID: "session_1_abc"})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "привет" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if gotText != "hi" || gotSession != "session_1_abc" {
		t.Errorf("form fields not sent: chatInput=%q sessionId=%q", gotText, gotSession)
	}
}

func TestSendChat_AttachesFile(t *testing.T) {
	var gotName string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("data")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		gotName = hdr.Filename
		gotData, _ = io.ReadAll(f)
		w.Write([]byte(`{"output":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{ChatURL: srv.URL, Logger: testLogger()})
	_, err := c.SendChat(context.Background(), ChatRequest{
		Text:      "statement attached",
		SessionID: "s",
		File:      &domain.FileRef{Name: "statement.pdf", MIME: "application/pdf", Size: 4},
		FileData:  []byte("%PDF"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotName != "statement.pdf" {
		t.Errorf("unexpected filename: %q", gotName)
	}
	if string(gotData) != "%PDF" {
		t.Errorf("unexpected file payload: %q", gotData)
	}
}

func TestSendChat_UnknownShapeFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something":"else"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{ChatURL: srv.URL, Logger: testLogger()})
	reply, err := c.SendChat(context.Background(), ChatRequest{Text: "hi", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if reply != DefaultReply {
		t.Errorf("expected default reply, got %q", reply)
	}
}

func TestSendChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{ChatURL: srv.URL, Logger: testLogger()})
	if _, err := c.SendChat(context.Background(), ChatRequest{Text: "hi", SessionID: "s"}); err == nil {
		t.Error("expected error on 500")
	}
}

func TestProcessAudio_BinaryReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, hdr, err := r.FormFile("data"); err != nil || hdr.Filename != "audio.webm" {
			t.Fatalf("expected audio.webm upload, got %v %v", hdr, err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("MP3DATA"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AudioURL: srv.URL, Logger: testLogger()})
	reply, err := c.ProcessAudio(context.Background(), []byte("webm"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Kind != domain.AudioReplyBinary {
		t.Fatalf("expected binary reply, got %v", reply.Kind)
	}
	if string(reply.Data) != "MP3DATA" || reply.MIME != "audio/mpeg" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestProcessAudio_URLReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"audioUrl":"https://cdn.example/reply.mp3"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AudioURL: srv.URL, Logger: testLogger()})
	reply, err := c.ProcessAudio(context.Background(), []byte("webm"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Kind != domain.AudioReplyURL || reply.URL != "https://cdn.example/reply.mp3" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestProcessAudio_TextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Ваш баланс 100"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AudioURL: srv.URL, Logger: testLogger()})
	reply, err := c.ProcessAudio(context.Background(), []byte("webm"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Kind != domain.AudioReplyText || reply.Text != "Ваш баланс 100" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestProcessAudio_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AudioURL: srv.URL, Logger: testLogger()})
	if _, err := c.ProcessAudio(context.Background(), []byte("webm")); err == nil {
		t.Error("expected error on 502")
	}
}
