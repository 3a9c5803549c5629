// Package chat owns one conversation view: its session identifier, ordered
// transcript, and single-slot attachment staging.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bankassist/internal/domain"
	"bankassist/internal/webhook"
)

// Fixed display copy, matching the product's Russian strings.
const (
	Greeting = "Привет! Я ваш персональный финансовый помощник. Чем могу помочь?"
	Apology  = "Извините, произошла ошибка соединения. Попробуйте еще раз."
)

// ChatSender posts one user turn to the workflow engine and returns the
// assistant's display text.
type ChatSender interface {
	SendChat(ctx context.Context, req webhook.ChatRequest) (string, error)
}

// Composer holds the ordered chat history for one mounted view and issues
// sends against it. Concurrent sends are allowed and never serialized against
// each other; messages append in the order their requests settle. Every send
// yields exactly one bot message, the fixed apology on failure.
type Composer struct {
	session string
	sender  ChatSender
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	messages []domain.ChatMessage
}

func NewComposer(sender ChatSender, logger *slog.Logger) *Composer {
	c := &Composer{
		session: NewSessionID(),
		sender:  sender,
		logger:  logger,
		now:     time.Now,
	}
	c.append(domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      Greeting,
		Sender:    domain.SenderBot,
		Timestamp: c.now(),
	})
	return c
}

// SessionID is constant for the composer's lifetime.
func (c *Composer) SessionID() string { return c.session }

// Messages returns a copy of the transcript in append order.
func (c *Composer) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send appends the user turn, posts it, and appends exactly one bot turn once
// the request settles. Failures surface as the apology message, never as an
// error to the view; there is no retry and no cancellation of earlier sends.
func (c *Composer) Send(ctx context.Context, text string, att *StagedFile) domain.ChatMessage {
	user := domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    domain.SenderUser,
		Timestamp: c.now(),
	}
	req := webhook.ChatRequest{Text: text, SessionID: c.session}
	if att != nil {
		ref := att.Ref
		user.File = &ref
		user.Preview = att.Preview
		req.File = &ref
		req.FileData = att.Data
	}
	c.append(user)

	reply, err := c.sender.SendChat(ctx, req)
	if err != nil {
		c.logger.Warn("chat send failed", "session", c.session, "err", err)
		reply = Apology
	}

	bot := domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      reply,
		Sender:    domain.SenderBot,
		Timestamp: c.now(),
	}
	c.append(bot)
	return bot
}

func (c *Composer) append(msg domain.ChatMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}
