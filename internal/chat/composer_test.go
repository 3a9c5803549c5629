package chat

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"bankassist/internal/domain"
	"bankassist/internal/webhook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type fakeSender struct {
	mu    sync.Mutex
	reqs  []webhook.ChatRequest
	reply string
	err   error
}

func (f *fakeSender) SendChat(ctx context.Context, req webhook.ChatRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.reply, f.err
}

func TestComposer_SeedsGreeting(t *testing.T) {
	c := NewComposer(&fakeSender{}, testLogger())
	msgs := c.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected greeting only, got %d messages", len(msgs))
	}
	if msgs[0].Sender != domain.SenderBot || msgs[0].Text != Greeting {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
}

func TestSend_AppendsUserAndBot(t *testing.T) {
	sender := &fakeSender{reply: "ответ"}
	c := NewComposer(sender, testLogger())

	bot := c.Send(context.Background(), "вопрос", nil)

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Sender != domain.SenderUser || msgs[1].Text != "вопрос" {
		t.Errorf("user turn wrong: %+v", msgs[1])
	}
	if msgs[2].Sender != domain.SenderBot || msgs[2].Text != "ответ" {
		t.Errorf("bot turn wrong: %+v", msgs[2])
	}
	if bot.ID != msgs[2].ID {
		t.Error("Send should return the appended bot message")
	}
}

func TestSend_FailureAppendsApology(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	c := NewComposer(sender, testLogger())

	c.Send(context.Background(), "вопрос", nil)

	msgs := c.Messages()
	// Exactly one bot message per send, even on failure.
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Sender != domain.SenderBot || msgs[2].Text != Apology {
		t.Errorf("expected apology bot turn, got %+v", msgs[2])
	}
}

func TestSend_SessionConstantAcrossRequests(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	c := NewComposer(sender, testLogger())

	c.Send(context.Background(), "one", nil)
	c.Send(context.Background(), "two", nil)

	if len(sender.reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(sender.reqs))
	}
	if sender.reqs[0].SessionID != c.SessionID() || sender.reqs[1].SessionID != c.SessionID() {
		t.Error("session id must be constant across requests from one view")
	}
}

func TestSessionID_DiffersAcrossMounts(t *testing.T) {
	a := NewComposer(&fakeSender{}, testLogger())
	b := NewComposer(&fakeSender{}, testLogger())
	if a.SessionID() == b.SessionID() {
		t.Error("two independent mounts must not share a session id")
	}
}

func TestSend_AttachmentForwarded(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	c := NewComposer(sender, testLogger())

	att := &StagedFile{
		Ref:  domain.FileRef{Name: "photo.png", MIME: "image/png", Size: 3},
		Data: []byte{1, 2, 3},
	}
	c.Send(context.Background(), "смотри", att)

	req := sender.reqs[0]
	if req.File == nil || req.File.Name != "photo.png" {
		t.Fatalf("attachment not forwarded: %+v", req.File)
	}
	if len(req.FileData) != 3 {
		t.Errorf("attachment bytes not forwarded")
	}

	user := c.Messages()[1]
	if user.File == nil || user.File.Name != "photo.png" {
		t.Errorf("user message missing file descriptor: %+v", user)
	}
}

func TestSend_ConcurrentSendsAllSettle(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	c := NewComposer(sender, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Send(context.Background(), "parallel", nil)
		}()
	}
	wg.Wait()

	// Greeting + 5 user turns + 5 bot turns; order follows settle order.
	if got := len(c.Messages()); got != 11 {
		t.Errorf("expected 11 messages, got %d", got)
	}
}
