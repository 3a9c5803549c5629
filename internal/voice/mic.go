package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"bankassist/internal/domain"
)

const defaultChunkSize = 32 * 1024

// ReaderMicrophone replays audio from a reader-producing source, standing in
// for a live capture device. The CLI points it at webm files; the web channel
// points it at the websocket frame feed.
type ReaderMicrophone struct {
	Open      func() (io.ReadCloser, error)
	ChunkSize int
}

func (m *ReaderMicrophone) Acquire(ctx context.Context) (domain.CaptureStream, error) {
	if m.Open == nil {
		return nil, errors.New("no capture source configured")
	}
	rc, err := m.Open()
	if err != nil {
		return nil, fmt.Errorf("open capture source: %w", err)
	}
	size := m.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	s := &readerStream{
		rc:   rc,
		ch:   make(chan []byte, 8),
		quit: make(chan struct{}),
	}
	go s.pump(size)
	return s, nil
}

// BufferMicrophone replays one already-captured recording, for surfaces that
// receive a complete utterance rather than a live device feed. The stream is
// fully buffered on Acquire, so capture can be stopped at any point without
// losing audio.
type BufferMicrophone struct {
	Load func() ([]byte, error)
}

func (m *BufferMicrophone) Acquire(ctx context.Context) (domain.CaptureStream, error) {
	if m.Load == nil {
		return nil, errors.New("no capture source configured")
	}
	data, err := m.Load()
	if err != nil {
		return nil, fmt.Errorf("load recording: %w", err)
	}
	ch := make(chan []byte, 1)
	if len(data) > 0 {
		ch <- data
	}
	close(ch)
	return &bufferStream{ch: ch}, nil
}

type bufferStream struct{ ch chan []byte }

func (s *bufferStream) Chunks() <-chan []byte { return s.ch }

func (s *bufferStream) Close() error { return nil }

type readerStream struct {
	rc   io.ReadCloser
	ch   chan []byte
	quit chan struct{}
	once sync.Once
}

func (s *readerStream) pump(size int) {
	defer close(s.ch)
	for {
		buf := make([]byte, size)
		n, err := s.rc.Read(buf)
		if n > 0 {
			select {
			case s.ch <- buf[:n]:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *readerStream) Chunks() <-chan []byte { return s.ch }

// Close stops capture and releases the underlying source. Closing the source
// unblocks a pump stuck in Read.
func (s *readerStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		err = s.rc.Close()
	})
	return err
}
