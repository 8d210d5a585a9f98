package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientChat MessageType = "message"
	TypeReply      MessageType = "reply"
	TypeErrorEvent MessageType = "error"
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrEmptyMessage    = errors.New("message must not be blank")
)

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientChat is the single inbound frame: one user utterance.
type ClientChat struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// Reply carries the mirrored response for one turn. Degraded marks the
// fixed fallback text produced when generation failed.
type Reply struct {
	Type     MessageType `json:"type"`
	Reply    string      `json:"reply"`
	Degraded bool        `json:"degraded,omitempty"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

func NewReply(text string, degraded bool) Reply {
	return Reply{Type: TypeReply, Reply: text, Degraded: degraded}
}

func NewErrorEvent(code, detail string) ErrorEvent {
	return ErrorEvent{Type: TypeErrorEvent, Code: code, Detail: detail}
}

// ParseClientMessage decodes and validates one inbound frame. Frames with
// an omitted type are treated as chat messages so plain {"message": ...}
// clients keep working.
func ParseClientMessage(data []byte) (ClientChat, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientChat{}, fmt.Errorf("invalid message envelope: %w", err)
	}
	if env.Type != "" && env.Type != TypeClientChat {
		return ClientChat{}, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}

	var msg ClientChat
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientChat{}, fmt.Errorf("invalid chat message: %w", err)
	}
	if strings.TrimSpace(msg.Message) == "" {
		return ClientChat{}, ErrEmptyMessage
	}
	msg.Type = TypeClientChat
	return msg, nil
}
