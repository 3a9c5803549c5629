// Package voice implements the two voice interaction flows: inline dictation
// for the chat composer and the full-duplex push-to-talk panel.
package voice

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"bankassist/internal/domain"
	"bankassist/internal/metrics"
)

// PanelState is the push-to-talk phase encoded by the orb.
type PanelState int

const (
	PanelIdle PanelState = iota
	PanelRecording
	PanelProcessing
	PanelPlaying
)

// Status strings shown under the orb, matching the product's Russian copy.
const (
	statusIdle       = "Нажмите чтобы говорить"
	statusRecording  = "Запись..."
	statusProcessing = "Обрабатываю..."
	statusPlaying    = "Отвечаю..."
	statusMicError   = "Ошибка доступа к микрофону"
	statusPlayError  = "Ошибка воспроизведения"
	statusLinkError  = "Ошибка связи с AI"
)

const defaultRevertDelay = 3 * time.Second

// AudioProcessor uploads one recorded utterance and returns the negotiated
// reply.
type AudioProcessor interface {
	ProcessAudio(ctx context.Context, audio []byte) (*domain.AudioReply, error)
}

// PanelConfig configures the realtime voice panel.
type PanelConfig struct {
	Mic         domain.Microphone
	Processor   AudioProcessor
	Player      domain.Player
	Tone        domain.Tone // record-start confirmation, optional
	RevertDelay time.Duration
	Logger      *slog.Logger
	// OnChange is the UI binding hook (orb visual state). Called with the
	// panel lock held; it must not call back into the panel.
	OnChange func(state PanelState, status string)
}

// Panel is the push-to-talk state machine {Idle, Recording, Processing,
// Playing}. Audio is buffered only for the current session; no transport
// failure is retried. Exactly one recording is active at a time: taps during
// Processing are ignored rather than racing a second upload.
type Panel struct {
	mic      domain.Microphone
	proc     AudioProcessor
	player   domain.Player
	tone     domain.Tone
	revert   time.Duration
	logger   *slog.Logger
	onChange func(PanelState, string)

	mu       sync.Mutex
	state    PanelState
	status   string
	stream   domain.CaptureStream
	drained  chan struct{}
	chunks   [][]byte
	playback domain.Playback
	gen      int // bumped on Close and barge-in to drop stale completions
}

func NewPanel(cfg PanelConfig) *Panel {
	if cfg.RevertDelay <= 0 {
		cfg.RevertDelay = defaultRevertDelay
	}
	return &Panel{
		mic:      cfg.Mic,
		proc:     cfg.Processor,
		player:   cfg.Player,
		tone:     cfg.Tone,
		revert:   cfg.RevertDelay,
		logger:   cfg.Logger,
		onChange: cfg.OnChange,
		state:    PanelIdle,
		status:   statusIdle,
	}
}

func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Panel) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Tap handles one press of the orb.
func (p *Panel) Tap(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case PanelIdle:
		p.startRecordingLocked(ctx)
	case PanelRecording:
		p.finishRecordingLocked(ctx)
	case PanelPlaying:
		// Barge-in: pause and discard the current reply, don't await it.
		if pb := p.playback; pb != nil {
			p.playback = nil
			pb.Stop()
		}
		p.gen++
		p.startRecordingLocked(ctx)
	case PanelProcessing:
		// One upload in flight at a time; ignore.
	}
}

// Close force-stops any in-progress recording, releases all device tracks,
// discards playback, and resets to the idle prompt.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	if p.stream != nil {
		p.stream.Close()
		p.stream = nil
	}
	p.drained = nil
	p.chunks = nil
	if p.playback != nil {
		p.playback.Stop()
		p.playback = nil
	}
	p.setLocked(PanelIdle, statusIdle)
}

func (p *Panel) startRecordingLocked(ctx context.Context) {
	stream, err := p.mic.Acquire(ctx)
	if err != nil {
		p.logger.Warn("microphone acquire failed", "err", err)
		p.setLocked(PanelIdle, statusMicError)
		return
	}
	if p.tone != nil {
		p.tone.Play()
	}

	p.stream = stream
	p.chunks = nil
	drained := make(chan struct{})
	p.drained = drained
	go func() {
		for chunk := range stream.Chunks() {
			p.mu.Lock()
			p.chunks = append(p.chunks, chunk)
			p.mu.Unlock()
		}
		close(drained)
	}()

	metrics.VoiceSessions.Inc()
	p.setLocked(PanelRecording, statusRecording)
}

func (p *Panel) finishRecordingLocked(ctx context.Context) {
	stream := p.stream
	p.stream = nil
	drained := p.drained
	p.drained = nil
	if stream != nil {
		stream.Close() // releases the device tracks
	}
	p.setLocked(PanelProcessing, statusProcessing)

	gen := p.gen
	go func() {
		if drained != nil {
			<-drained
		}
		p.mu.Lock()
		audio := bytes.Join(p.chunks, nil)
		p.chunks = nil
		stale := p.gen != gen || p.state != PanelProcessing
		if !stale && len(audio) == 0 {
			p.setLocked(PanelIdle, statusIdle)
		}
		p.mu.Unlock()
		if stale || len(audio) == 0 {
			return
		}
		p.process(ctx, gen, audio)
	}()
}

// process runs off the UI path: upload, then either play the reply audio or
// flash the reply text.
func (p *Panel) process(ctx context.Context, gen int, audio []byte) {
	reply, err := p.proc.ProcessAudio(ctx, audio)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.state != PanelProcessing {
		return // panel closed or re-tapped; drop the stale result
	}

	if err != nil {
		p.logger.Warn("audio processing failed", "err", err)
		p.setLocked(PanelIdle, statusLinkError)
		return
	}

	if reply.Kind == domain.AudioReplyText {
		status := "Ответ: " + reply.Text
		p.setLocked(PanelIdle, status)
		time.AfterFunc(p.revert, func() {
			p.mu.Lock()
			if p.gen == gen && p.state == PanelIdle && p.status == status {
				p.setLocked(PanelIdle, statusIdle)
			}
			p.mu.Unlock()
		})
		return
	}

	pb, err := p.player.Play(ctx, *reply)
	if err != nil {
		p.logger.Warn("playback start failed", "err", err)
		p.setLocked(PanelIdle, statusPlayError)
		return
	}
	p.playback = pb
	p.setLocked(PanelPlaying, statusPlaying)

	go func() {
		<-pb.Done()
		p.mu.Lock()
		if p.playback == pb { // not interrupted by barge-in or Close
			p.playback = nil
			if p.state == PanelPlaying {
				p.setLocked(PanelIdle, statusIdle)
			}
		}
		p.mu.Unlock()
	}()
}

func (p *Panel) setLocked(s PanelState, status string) {
	p.state = s
	p.status = status
	if p.onChange != nil {
		p.onChange(s, status)
	}
}
