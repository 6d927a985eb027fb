package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handshakehq/handshake-core/internal/model"
)

// auditTrail appends system messages to a job request's thread and fans the
// hint out to connected clients. Audit writes are best-effort secondary: a
// failure here is logged, never propagated, so it cannot roll back the
// mutation it documents.
type auditTrail struct {
	messages  MessageStore
	publisher Publisher
	log       zerolog.Logger
}

func newAuditTrail(messages MessageStore, publisher Publisher, log zerolog.Logger) *auditTrail {
	return &auditTrail{messages: messages, publisher: publisher, log: log}
}

func (a *auditTrail) record(ctx context.Context, jobRequestID, senderID uuid.UUID, content string, msgType model.MessageType) {
	msg := &model.Message{
		JobRequestID: jobRequestID,
		SenderID:     senderID,
		Content:      content,
		Type:         msgType,
	}
	if err := a.messages.Insert(ctx, msg); err != nil {
		a.log.Error().Err(err).
			Str("job_request_id", jobRequestID.String()).
			Str("content", content).
			Msg("system message insert failed")
		return
	}
	a.publisher.MessageNew(jobRequestID, msg.ID)
}
