package domain

import (
	"strings"
	"time"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// FileRef describes a user-selected file attached to a message.
type FileRef struct {
	Name string
	MIME string
	Size int64
}

// IsImage reports whether the file is eligible for an inline preview.
func (f FileRef) IsImage() bool {
	return strings.HasPrefix(f.MIME, "image/")
}

// ChatMessage is one turn in the chat transcript. A message is never mutated
// after creation and lives only as long as the view that owns it.
type ChatMessage struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
	File      *FileRef // optional attachment descriptor
	Preview   string   // optional image preview (data URI)
}
