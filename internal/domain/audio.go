package domain

import (
	"context"
	"errors"
)

// ErrRecognizerUnavailable is returned when no speech-recognition engine is
// configured. Callers report it to the user instead of crashing.
var ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")

// Microphone grants access to an audio capture device. The device is acquired
// and released per recording session, never held across screens.
type Microphone interface {
	Acquire(ctx context.Context) (CaptureStream, error)
}

// CaptureStream is one recording session's audio source. Closing it stops
// capture and releases every device track; Chunks is closed afterwards.
type CaptureStream interface {
	Chunks() <-chan []byte
	Close() error
}

// Recognizer converts recorded audio to text.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, filename string) (string, error)
}

// AudioReplyKind tags the shape of an audio-processing response.
type AudioReplyKind int

const (
	AudioReplyBinary AudioReplyKind = iota // raw audio bytes
	AudioReplyURL                          // remote audio URL
	AudioReplyText                         // plain text, no audio
)

// AudioReply is the negotiated result of one audio upload.
type AudioReply struct {
	Kind AudioReplyKind
	Data []byte // AudioReplyBinary
	MIME string
	URL  string // AudioReplyURL
	Text string // AudioReplyText
}

// Playback is an in-flight audio playback. Stop pauses and discards the
// buffered audio without waiting for it to finish; Done is closed when the
// playback ends for any reason.
type Playback interface {
	Done() <-chan struct{}
	Stop()
}

// Player starts playback of an audio or audio-URL reply.
type Player interface {
	Play(ctx context.Context, reply AudioReply) (Playback, error)
}

// Tone plays a short confirmation sound (the record-start beep).
type Tone interface {
	Play()
}
