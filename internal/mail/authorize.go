package mail

import (
	"context"
	"fmt"

	"github.com/hirewire/mailengine/internal/metrics"
	"github.com/hirewire/mailengine/internal/models"
)

// authorize loads the message and applies the sender-or-recipient test. The
// same test gates reads and mutations; there is no finer-grained permission.
func (e *Engine) authorize(ctx context.Context, userID, messageID string) (*Access, error) {
	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	msg, err := e.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	access := &Access{
		Message:     msg,
		IsSender:    msg.SenderID == user.ID,
		IsRecipient: msg.HasRecipient(user.InternalAddress),
	}

	if !access.IsSender && !access.IsRecipient {
		return nil, ErrForbidden
	}

	return access, nil
}

// Open authorizes read access and, for a recipient, advances the message to
// read. This is the only path to the read status. The transition fires once:
// already-read messages are untouched, the sender's own views never count,
// and terminal or draft states stay where they are.
func (e *Engine) Open(ctx context.Context, userID, messageID string) (*Access, error) {
	access, err := e.authorize(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	msg := access.Message
	if access.IsRecipient && readable(msg.Status) {
		readAt := e.now()
		msg.Status = models.StatusRead
		msg.Tracking.ReadAt = &readAt
		if err := e.messages.UpdateMessage(ctx, msg); err != nil {
			return nil, err
		}
		metrics.MessagesRead.Inc()
	}

	return access, nil
}

// readable reports whether the status may advance to read. Failed is
// terminal and drafts are not deliverable, so neither transitions.
func readable(s models.Status) bool {
	return s == models.StatusSent || s == models.StatusDelivered
}

// MoveToFolder reassigns the message's folder. "Delete" on the platform is a
// move to trash: no record is ever removed here, retention is an external
// policy.
func (e *Engine) MoveToFolder(ctx context.Context, userID, messageID string, folder models.Folder) (*models.Message, error) {
	if !models.ValidFolder(folder) {
		return nil, fmt.Errorf("unknown folder %q", folder)
	}

	access, err := e.authorize(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	msg := access.Message
	if msg.Folder == folder {
		return msg, nil
	}

	msg.Folder = folder
	if err := e.messages.UpdateMessage(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// SetFlags toggles the starred/important flags. Nil leaves a flag untouched.
// Flags have no effect on the delivery lifecycle.
func (e *Engine) SetFlags(ctx context.Context, userID, messageID string, starred, important *bool) (*models.Message, error) {
	access, err := e.authorize(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	msg := access.Message
	changed := false
	if starred != nil && msg.IsStarred != *starred {
		msg.IsStarred = *starred
		changed = true
	}
	if important != nil && msg.IsImportant != *important {
		msg.IsImportant = *important
		changed = true
	}

	if changed {
		if err := e.messages.UpdateMessage(ctx, msg); err != nil {
			return nil, err
		}
	}

	return msg, nil
}
