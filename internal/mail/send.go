package mail

import (
	"context"
	"log"

	"github.com/hirewire/mailengine/internal/metrics"
	"github.com/hirewire/mailengine/internal/models"
	"github.com/hirewire/mailengine/internal/notify"
)

// Send routes a composed message. The record is persisted first; what happens
// to external transport afterwards is recorded on the message, never
// surfaced to the sender. A transport failure therefore still returns the
// persisted message with a nil error.
func (e *Engine) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	sender, err := e.users.GetUserByID(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	msg := &models.Message{
		SenderID:      sender.ID,
		SenderAddress: sender.InternalAddress,
		Recipients:    req.Recipients,
		Subject:       req.Subject,
		Body:          req.Body,
		Status:        models.StatusSent,
		Type:          e.effectiveType(req),
		Folder:        models.FolderSent,
		ReplyToID:     req.ReplyToID,
	}
	msg.Tracking.SentAt = &now

	if err := e.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues(string(msg.Type)).Inc()

	if msg.Type == models.TypeExternal {
		e.deliverExternal(ctx, msg)
	} else {
		// Internal delivery is "recorded in the store", which has already
		// happened; there is no second hop to wait for.
		deliveredAt := e.now()
		msg.Status = models.StatusDelivered
		msg.Tracking.DeliveredAt = &deliveredAt
		if err := e.messages.UpdateMessage(ctx, msg); err != nil {
			return nil, err
		}
		metrics.MessagesDelivered.WithLabelValues(string(models.TypeInternal)).Inc()
	}

	e.notifyRecipients(ctx, msg)

	return msg, nil
}

// effectiveType is external when the caller says so or when any recipient
// lives off the platform; otherwise internal.
func (e *Engine) effectiveType(req SendRequest) models.MessageType {
	if req.Type == models.TypeExternal {
		return models.TypeExternal
	}
	for _, r := range req.Recipients {
		if !e.classifier.IsInternal(r) {
			return models.TypeExternal
		}
	}
	return models.TypeInternal
}

// deliverExternal hands the message to the external transport under a bounded
// deadline and records the outcome. Failed is terminal: there is no retry.
func (e *Engine) deliverExternal(ctx context.Context, msg *models.Message) {
	transportCtx, cancel := context.WithTimeout(ctx, e.transportTimeout)
	defer cancel()

	err := e.transport.Send(transportCtx, msg.SenderAddress, msg.Recipients, msg.Subject, msg.Body)
	if err != nil {
		log.Printf("Engine: External delivery failed for message %s: %v", msg.ID, err)
		msg.Status = models.StatusFailed
		msg.Tracking.BounceStatus = "failed"
		msg.Tracking.BounceReason = err.Error()
		metrics.DeliveryFailures.Inc()
	} else {
		deliveredAt := e.now()
		msg.Status = models.StatusDelivered
		msg.Tracking.DeliveredAt = &deliveredAt
		metrics.MessagesDelivered.WithLabelValues(string(models.TypeExternal)).Inc()
	}

	if updateErr := e.messages.UpdateMessage(ctx, msg); updateErr != nil {
		log.Printf("Engine: Failed to record delivery outcome for message %s: %v", msg.ID, updateErr)
	}
}

// notifyRecipients pushes a new-message event to every internal recipient
// with an open connection. Best effort: resolution failures are logged and
// skipped, a missing notifier is a no-op.
func (e *Engine) notifyRecipients(ctx context.Context, msg *models.Message) {
	if e.notifier == nil {
		return
	}

	event := notify.NewMessageEvent(msg.ID, msg.SenderAddress, msg.Subject)
	for _, addr := range msg.Recipients {
		if !e.classifier.IsInternal(addr) {
			continue
		}
		recipient, err := e.users.GetUserByAddress(ctx, addr)
		if err != nil {
			log.Printf("Engine: No user for internal address %s: %v", addr, err)
			continue
		}
		e.notifier.Publish(recipient.ID, event)
	}
}

// SaveDraft persists a message without routing it. Drafts keep whatever
// recipients they have (possibly none) and never leave the drafts folder
// until sent.
func (e *Engine) SaveDraft(ctx context.Context, req SendRequest) (*models.Message, error) {
	sender, err := e.users.GetUserByID(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:      sender.ID,
		SenderAddress: sender.InternalAddress,
		Recipients:    req.Recipients,
		Subject:       req.Subject,
		Body:          req.Body,
		Status:        models.StatusDraft,
		Type:          e.effectiveType(req),
		Folder:        models.FolderDrafts,
		ReplyToID:     req.ReplyToID,
	}

	if err := e.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.DraftsSaved.Inc()

	return msg, nil
}
