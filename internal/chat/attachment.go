package chat

import (
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"bankassist/internal/domain"
)

// StagedFile is an attachment waiting to go out with the next message.
type StagedFile struct {
	Ref     domain.FileRef
	Data    []byte
	Preview string // data URI, image files only
}

// Staging holds at most one pending attachment. Staging a new file replaces
// the previous one without warning; Clear removes both the file reference and
// any preview.
type Staging struct {
	mu     sync.Mutex
	staged *StagedFile
}

// Stage reads the file into memory and makes it the pending attachment.
// Image files additionally get a base64 data-URI preview.
func (s *Staging) Stage(name, mime string, r io.Reader) (*StagedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read attachment %s: %w", name, err)
	}

	sf := &StagedFile{
		Ref:  domain.FileRef{Name: name, MIME: mime, Size: int64(len(data))},
		Data: data,
	}
	if sf.Ref.IsImage() {
		sf.Preview = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	}

	s.mu.Lock()
	s.staged = sf
	s.mu.Unlock()
	return sf, nil
}

// Staged returns the pending attachment, or nil.
func (s *Staging) Staged() *StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// Take returns the pending attachment and clears it, for use on send.
func (s *Staging) Take() *StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf := s.staged
	s.staged = nil
	return sf
}

func (s *Staging) Clear() {
	s.mu.Lock()
	s.staged = nil
	s.mu.Unlock()
}
