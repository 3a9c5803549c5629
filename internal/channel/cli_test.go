package channel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bankassist/internal/bus"
)

func TestCLI_PublishesTypedLines(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	var out bytes.Buffer
	cli := NewCLI(CLIConfig{
		Logger: testLogger(),
		In:     strings.NewReader("сколько я потратил?\n/quit\n"),
		Out:    &out,
	})

	done := make(chan error, 1)
	go func() { done <- cli.Start(context.Background(), b) }()

	select {
	case msg := <-b.Subscribe():
		if msg.Channel != "cli" || msg.Content != "сколько я потратил?" {
			t.Errorf("inbound = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("typed line never published")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("/quit did not stop the REPL")
	}
}

func TestCLI_FileCommandAttaches(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "statement.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cli := NewCLI(CLIConfig{
		Logger: testLogger(),
		In:     strings.NewReader("/file " + path + " вот выписка\n/quit\n"),
		Out:    &out,
	})

	go cli.Start(context.Background(), b)

	select {
	case msg := <-b.Subscribe():
		if msg.Content != "вот выписка" {
			t.Errorf("content = %q", msg.Content)
		}
		if msg.File == nil || msg.File.Name != "statement.pdf" || len(msg.FileData) != 4 {
			t.Errorf("attachment = %+v", msg.File)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("file turn never published")
	}
}

// syncBuffer guards the output buffer against the spinner goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestCLI_FileStagedForNextMessage(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "statement.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out syncBuffer
	cli := NewCLI(CLIConfig{
		Logger: testLogger(),
		In:     strings.NewReader("/file " + path + "\nвот выписка\n/quit\n"),
		Out:    &out,
	})

	go cli.Start(context.Background(), b)

	select {
	case msg := <-b.Subscribe():
		if msg.Content != "вот выписка" {
			t.Errorf("content = %q", msg.Content)
		}
		if msg.File == nil || msg.File.Name != "statement.pdf" || len(msg.FileData) != 4 {
			t.Errorf("staged attachment missing: %+v", msg.File)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("staged turn never published")
	}
	if !strings.Contains(out.String(), "Файл прикреплён: statement.pdf") {
		t.Error("missing staging confirmation")
	}
}

func TestCLI_RestagingReplacesPendingFile(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.pdf")
	second := filepath.Join(dir, "second.pdf")
	if err := os.WriteFile(first, []byte("%PDF-1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("%PDF-2"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cli := NewCLI(CLIConfig{
		Logger: testLogger(),
		In:     strings.NewReader("/file " + first + "\n/file " + second + "\nвыписка\n/quit\n"),
		Out:    &out,
	})

	go cli.Start(context.Background(), b)

	select {
	case msg := <-b.Subscribe():
		if msg.File == nil || msg.File.Name != "second.pdf" {
			t.Errorf("attachment = %+v, want the replacement", msg.File)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("turn never published")
	}

	// The slot is single-use; a following turn goes out bare.
	cli.send("ещё вопрос")
	select {
	case msg := <-b.Subscribe():
		if msg.File != nil {
			t.Errorf("attachment should be consumed, got %+v", msg.File)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bare turn never published")
	}
}

type cliRecognizer struct {
	mu   sync.Mutex
	text string
}

func (r *cliRecognizer) Recognize(ctx context.Context, audio []byte, filename string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text, nil
}

func TestCLI_VoiceCommandTranscribesAndSends(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "note.webm")
	if err := os.WriteFile(path, []byte("opus"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cli := NewCLI(CLIConfig{
		Logger:     testLogger(),
		In:         strings.NewReader("/voice " + path + "\n/quit\n"),
		Out:        &out,
		Recognizer: &cliRecognizer{text: "переведи сто тенге"},
	})

	go cli.Start(context.Background(), b)

	select {
	case msg := <-b.Subscribe():
		if msg.Content != "переведи сто тенге" {
			t.Errorf("content = %q", msg.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("voice turn never published")
	}
}

func TestCLI_VoiceWithoutRecognizerDegrades(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	var out bytes.Buffer
	cli := NewCLI(CLIConfig{
		Logger: testLogger(),
		In:     strings.NewReader("/voice whatever.webm\n/quit\n"),
		Out:    &out,
	})

	done := make(chan error, 1)
	go func() { done <- cli.Start(context.Background(), b) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("REPL did not finish")
	}
	if !strings.Contains(out.String(), "Распознавание речи не настроено") {
		t.Error("missing unavailability notice")
	}
}

func TestCLI_VoiceEmptyTranscriptDiscarded(t *testing.T) {
	b := bus.New(8, testLogger())
	defer b.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "silence.webm")
	if err := os.WriteFile(path, []byte("opus"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cli := NewCLI(CLIConfig{
		Logger:     testLogger(),
		In:         strings.NewReader("/voice " + path + "\n/quit\n"),
		Out:        &out,
		Recognizer: &cliRecognizer{text: "   "},
	})

	done := make(chan error, 1)
	go func() { done <- cli.Start(context.Background(), b) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("REPL did not finish")
	}
	if !strings.Contains(out.String(), "Пустая запись") {
		t.Error("missing empty-recording notice")
	}
	select {
	case msg := <-b.Subscribe():
		t.Errorf("unexpected publish: %+v", msg)
	default:
	}
}
