// Package channel implements the interaction surfaces: the terminal REPL and
// the embedded web client.
package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bankassist/internal/chat"
	"bankassist/internal/domain"
	"bankassist/internal/voice"
)

// CLI is the interactive terminal chat.
type CLI struct {
	bus    domain.MessageBus
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	staging   chat.Staging
	dictation *voice.Dictation
	voicePath string
	voiceSent bool

	thinking  bool
	thinkMu   sync.Mutex
	thinkStop chan struct{}
}

type CLIConfig struct {
	Logger     *slog.Logger
	In         io.Reader
	Out        io.Writer
	Recognizer domain.Recognizer
}

func NewCLI(cfg CLIConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	c := &CLI{
		logger: cfg.Logger,
		in:     cfg.In,
		out:    cfg.Out,
	}
	mic := &voice.BufferMicrophone{
		Load: func() ([]byte, error) { return os.ReadFile(c.voicePath) },
	}
	c.dictation = voice.NewDictation(mic, cfg.Recognizer, func(ctx context.Context, text string) {
		c.voiceSent = true
		_, _ = fmt.Fprintf(c.out, "Распознано: %s\n", text)
		c.publish(text, nil, nil)
	}, cfg.Logger)
	return c
}

func (c *CLI) Name() string { return "cli" }

// Start runs the interactive REPL and blocks until context is cancelled.
func (c *CLI) Start(ctx context.Context, bus domain.MessageBus) error {
	c.bus = bus

	bus.OnOutbound("cli", func(msg domain.OutboundMessage) {
		c.stopThinking()
		_, _ = fmt.Fprintln(c.out, "\r\033[K") // Clear spinner line
		_, _ = fmt.Fprintln(c.out, "--- Ассистент ---")
		_, _ = fmt.Fprintln(c.out, msg.Content)
		_, _ = fmt.Fprintln(c.out, "-----------------")
		_, _ = fmt.Fprint(c.out, "Вы> ")
	})

	_, _ = fmt.Fprintln(c.out, chat.Greeting)
	_, _ = fmt.Fprintln(c.out, "Команды: /file <путь> [сообщение], /voice <путь к webm>, /quit")
	_, _ = fmt.Fprint(c.out, "Вы> ")

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil // EOF
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			_, _ = fmt.Fprint(c.out, "Вы> ")
			continue
		case line == "/quit" || line == "/exit" || line == "/q":
			c.logger.Info("user requested quit")
			return nil
		case strings.HasPrefix(line, "/file "):
			c.stageFile(strings.TrimPrefix(line, "/file "))
			continue
		case strings.HasPrefix(line, "/voice "):
			c.sendVoice(ctx, strings.TrimPrefix(line, "/voice "))
			continue
		}

		c.send(line)
	}
}

// send publishes one typed line, taking along whatever attachment is staged.
func (c *CLI) send(text string) {
	if sf := c.staging.Take(); sf != nil {
		c.publish(text, &sf.Ref, sf.Data)
		return
	}
	c.publish(text, nil, nil)
}

// stageFile handles "/file <path> [message]": the file goes into the staging
// slot, replacing any previous one. With a message the staged file rides out
// immediately; without one it waits for the next typed line.
func (c *CLI) stageFile(args string) {
	path, message, _ := strings.Cut(args, " ")
	f, err := os.Open(path)
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Не удалось прочитать файл: %v\nВы> ", err)
		return
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	sf, err := c.staging.Stage(filepath.Base(path), mimeType, f)
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Не удалось прочитать файл: %v\nВы> ", err)
		return
	}

	if message = strings.TrimSpace(message); message != "" {
		c.send(message)
		return
	}
	_, _ = fmt.Fprintf(c.out, "Файл прикреплён: %s\nВы> ", sf.Ref.Name)
}

// sendVoice handles "/voice <path>": replay a recorded webm file through the
// dictation flow, which transcribes it and sends the transcript as a regular
// turn.
func (c *CLI) sendVoice(ctx context.Context, path string) {
	c.voicePath = strings.TrimSpace(path)
	c.voiceSent = false

	if err := c.dictation.Start(ctx); err != nil {
		if errors.Is(err, domain.ErrRecognizerUnavailable) {
			_, _ = fmt.Fprint(c.out, "Распознавание речи не настроено\nВы> ")
			return
		}
		_, _ = fmt.Fprintf(c.out, "Не удалось прочитать запись: %v\nВы> ", err)
		return
	}
	if err := c.dictation.Stop(ctx); err != nil {
		c.logger.Warn("voice transcription failed", "err", err)
		_, _ = fmt.Fprint(c.out, "Не удалось распознать запись\nВы> ")
		return
	}
	if !c.voiceSent {
		_, _ = fmt.Fprint(c.out, "Пустая запись\nВы> ")
	}
}

func (c *CLI) publish(content string, file *domain.FileRef, fileData []byte) {
	c.startThinking()
	c.bus.Publish(domain.InboundMessage{
		Channel:   "cli",
		ChatID:    "terminal",
		SenderID:  "user",
		Content:   content,
		File:      file,
		FileData:  fileData,
		Timestamp: time.Now(),
	})
}

func (c *CLI) startThinking() {
	c.thinkMu.Lock()
	defer c.thinkMu.Unlock()
	if c.thinking {
		return
	}
	c.thinking = true
	c.thinkStop = make(chan struct{})
	go func() {
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-c.thinkStop:
				return
			case <-ticker.C:
				fmt.Fprintf(c.out, "\r%s Думаю...", frames[i%len(frames)])
				i++
			}
		}
	}()
}

func (c *CLI) stopThinking() {
	c.thinkMu.Lock()
	defer c.thinkMu.Unlock()
	if !c.thinking {
		return
	}
	c.thinking = false
	close(c.thinkStop)
}

// Stop is a no-op for CLI (we exit when Start returns).
func (c *CLI) Stop() error { return nil }
