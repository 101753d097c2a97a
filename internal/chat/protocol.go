package chat

import (
	"github.com/oggyb/muzz-match/internal/db"
)

// Frame actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Frame statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

const detailBadFormat = "unknown action or bad message format"

// Inbound is one client frame.
type Inbound struct {
	Action  string          `json:"action" validate:"required,oneof=CREATE UPDATE DELETE"`
	Message *InboundMessage `json:"message" validate:"required"`
}

// InboundMessage carries the client supplied part of a message. Server owned
// fields (fromId, timestamps) are never read from the client.
type InboundMessage struct {
	ID      string  `json:"id" validate:"omitempty,max=64"`
	MatchID string  `json:"matchId" validate:"omitempty,max=64"`
	ToID    string  `json:"toId" validate:"required,max=64"`
	Text    *string `json:"text" validate:"omitempty,max=4096"`
	Status  string  `json:"status" validate:"omitempty,oneof=DELIVERED READ"`
	ReplyTo *string `json:"replyTo" validate:"omitempty,max=64"`
	GroupID *string `json:"groupId" validate:"omitempty,max=64"`
	Media   *string `json:"media" validate:"omitempty,max=512"`
}

// Outbound is a reply to the sender or a push to the recipient.
type Outbound struct {
	Status  string      `json:"status"`
	Action  string      `json:"action,omitempty"`
	Message *db.Message `json:"message,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

func ok(action string, m *db.Message) Outbound {
	return Outbound{Status: StatusOK, Action: action, Message: m}
}

func failure(detail string) Outbound {
	return Outbound{Status: StatusError, Detail: detail}
}
