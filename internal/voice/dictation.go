package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"bankassist/internal/domain"
)

// DictationState is the inline dictation phase.
type DictationState int

const (
	DictationIdle DictationState = iota
	DictationListening
	DictationSending
)

// ErrAlreadyListening rejects a second recognition session while one is
// active. The product behavior left this unguarded; here barge-in is
// explicitly not supported for dictation.
var ErrAlreadyListening = errors.New("dictation session already active")

// Dictation drives inline voice input for the chat composer: record one
// utterance, transcribe it, and forward a non-empty transcript as a normal
// chat send. Empty recordings and empty transcripts are discarded silently.
type Dictation struct {
	mic    domain.Microphone
	rec    domain.Recognizer
	send   func(ctx context.Context, text string)
	logger *slog.Logger

	mu      sync.Mutex
	state   DictationState
	stream  domain.CaptureStream
	drained chan struct{}
	chunks  [][]byte
}

// NewDictation wires the dictation flow. rec may be nil when no
// speech-recognition engine is configured; Start then reports the capability
// as unavailable instead of crashing.
func NewDictation(mic domain.Microphone, rec domain.Recognizer, send func(ctx context.Context, text string), logger *slog.Logger) *Dictation {
	return &Dictation{mic: mic, rec: rec, send: send, logger: logger}
}

func (d *Dictation) State() DictationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start acquires the microphone and begins buffering audio.
func (d *Dictation) Start(ctx context.Context) error {
	if d.rec == nil {
		return domain.ErrRecognizerUnavailable
	}

	d.mu.Lock()
	if d.state != DictationIdle {
		d.mu.Unlock()
		return ErrAlreadyListening
	}
	d.state = DictationListening
	d.mu.Unlock()

	stream, err := d.mic.Acquire(ctx)
	if err != nil {
		d.mu.Lock()
		d.state = DictationIdle
		d.mu.Unlock()
		return fmt.Errorf("acquire microphone: %w", err)
	}

	drained := make(chan struct{})
	d.mu.Lock()
	d.stream = stream
	d.drained = drained
	d.chunks = nil
	d.mu.Unlock()

	go func() {
		for chunk := range stream.Chunks() {
			d.mu.Lock()
			d.chunks = append(d.chunks, chunk)
			d.mu.Unlock()
		}
		close(drained)
	}()
	return nil
}

// Stop ends capture and transcribes what was recorded. An empty recording or
// transcript is discarded; anything else goes out through the send callback.
func (d *Dictation) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.state != DictationListening {
		d.mu.Unlock()
		return nil
	}
	stream := d.stream
	d.stream = nil
	drained := d.drained
	d.drained = nil
	d.state = DictationSending
	d.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	if drained != nil {
		<-drained
	}

	d.mu.Lock()
	audio := bytes.Join(d.chunks, nil)
	d.chunks = nil
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.state = DictationIdle
		d.mu.Unlock()
	}()

	if len(audio) == 0 {
		return nil
	}

	text, err := d.rec.Recognize(ctx, audio, "dictation.webm")
	if err != nil {
		return fmt.Errorf("transcribe dictation: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		d.logger.Info("empty transcript discarded")
		return nil
	}

	d.send(ctx, text)
	return nil
}
