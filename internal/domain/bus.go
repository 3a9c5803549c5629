package domain

import "time"

// InboundMessage is a user turn entering the system from a channel.
type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	File      *FileRef
	FileData  []byte // raw attachment bytes, nil when File is nil
	Timestamp time.Time
}

// OutboundMessage is an assistant reply routed back to a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}

// MessageBus decouples interaction channels from the conversation worker.
type MessageBus interface {
	Publish(msg InboundMessage)
	Subscribe() <-chan InboundMessage
	SendOutbound(msg OutboundMessage)
	OnOutbound(channel string, handler func(OutboundMessage))
	Close()
}
