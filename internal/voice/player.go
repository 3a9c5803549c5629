package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"bankassist/internal/domain"
)

// SinkPlayer delivers reply audio to a byte sink: a websocket peer, a file,
// an external playback process. URL replies are fetched first; Stop abandons
// the fetch and discards the buffered audio.
type SinkPlayer struct {
	HTTP   *http.Client
	Sink   func(mime string, data []byte) error
	Logger *slog.Logger
}

func (p *SinkPlayer) Play(ctx context.Context, reply domain.AudioReply) (domain.Playback, error) {
	if p.Sink == nil {
		return nil, errors.New("no audio sink configured")
	}
	ctx, cancel := context.WithCancel(ctx)
	pb := &sinkPlayback{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer pb.finish()
		data, mime := reply.Data, reply.MIME
		if reply.Kind == domain.AudioReplyURL {
			var err error
			data, mime, err = p.fetch(ctx, reply.URL)
			if err != nil {
				p.Logger.Warn("fetch reply audio failed", "url", reply.URL, "err", err)
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err := p.Sink(mime, data); err != nil {
			p.Logger.Warn("audio sink failed", "err", err)
		}
	}()
	return pb, nil
}

func (p *SinkPlayer) fetch(ctx context.Context, url string) ([]byte, string, error) {
	httpc := p.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build audio request: %w", err)
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch audio: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read audio body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

type sinkPlayback struct {
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

func (pb *sinkPlayback) Done() <-chan struct{} { return pb.done }

func (pb *sinkPlayback) Stop() {
	pb.cancel()
	pb.finish()
}

func (pb *sinkPlayback) finish() {
	pb.once.Do(func() { close(pb.done) })
}
