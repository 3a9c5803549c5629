package app

import (
	"context"
	"log/slog"
	"sync"

	"bankassist/internal/chat"
	"bankassist/internal/domain"
	"bankassist/internal/metrics"
)

const defaultConcurrency = 3

// ComposerFactory mounts a fresh conversation for a new chat.
type ComposerFactory func() *chat.Composer

// Worker consumes inbound messages from the bus, drives the conversation for
// each chat, and publishes the bot reply back to the originating channel.
// Each channel/chat pair gets its own composer and therefore its own session.
type Worker struct {
	bus         domain.MessageBus
	newComposer ComposerFactory
	logger      *slog.Logger
	concurrency int

	mu        sync.Mutex
	composers map[string]*chat.Composer
}

type WorkerConfig struct {
	Bus         domain.MessageBus
	NewComposer ComposerFactory
	Logger      *slog.Logger
	Concurrency int // max parallel messages (default 3)
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Worker{
		bus:         cfg.Bus,
		newComposer: cfg.NewComposer,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		composers:   make(map[string]*chat.Composer),
	}
}

// Run consumes inbound messages with bounded concurrency until the context
// is cancelled or the bus closes.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", "concurrency", w.concurrency)

	sem := make(chan struct{}, w.concurrency)
	inbound := w.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				w.logger.Info("inbound channel closed, worker stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				w.processMessage(ctx, m)
			}(msg)
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, msg domain.InboundMessage) {
	metrics.MessagesTotal.Inc()
	composer := w.composerFor(msg.Channel, msg.ChatID)

	var att *chat.StagedFile
	if msg.File != nil {
		att = &chat.StagedFile{Ref: *msg.File, Data: msg.FileData}
	}

	reply := composer.Send(ctx, msg.Content, att)

	w.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply.Text,
	})
}

func (w *Worker) composerFor(channel, chatID string) *chat.Composer {
	key := channel + ":" + chatID
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.composers[key]; ok {
		return c
	}
	c := w.newComposer()
	w.composers[key] = c
	w.logger.Info("conversation mounted", "channel", channel, "chat_id", chatID, "session", c.SessionID())
	return c
}
