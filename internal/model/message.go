package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText              MessageType = "text"
	MessageTypeStatusChange      MessageType = "status_change"
	MessageTypeOfferNotification MessageType = "offer_notification"
	MessageTypeSystem            MessageType = "system"
)

// Message is one unit of a job request's conversation thread. Rows are
// append-only; read_at is the only mutable field.
type Message struct {
	ID           uuid.UUID
	JobRequestID uuid.UUID
	SenderID     uuid.UUID
	Content      string
	Type         MessageType
	ReadAt       *time.Time
	CreatedAt    time.Time
}
