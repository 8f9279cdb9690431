package mail

import (
	"context"
	"fmt"

	"github.com/hirewire/mailengine/internal/models"
	"github.com/hirewire/mailengine/internal/store"
)

// DefaultPageSize is the mailbox page size when the caller gives none.
const DefaultPageSize = 20

// folderFilter maps a folder to its predicate over the flat message store.
// The mapping is part of the product's contract:
//
//	inbox:  recipient match only (status and folder do not narrow it)
//	sent:   authored by the user
//	drafts: authored by the user, still in draft status
//	trash:  either side of the message, moved to trash
//	spam:   recipient match, moved to spam
func folderFilter(user *models.User, folder models.Folder) (store.MailboxFilter, error) {
	switch folder {
	case models.FolderInbox:
		return store.MailboxFilter{RecipientAddress: user.InternalAddress}, nil
	case models.FolderSent:
		return store.MailboxFilter{SenderID: user.ID}, nil
	case models.FolderDrafts:
		return store.MailboxFilter{SenderID: user.ID, Status: models.StatusDraft}, nil
	case models.FolderTrash:
		return store.MailboxFilter{
			SenderID:         user.ID,
			RecipientAddress: user.InternalAddress,
			AnyParticipant:   true,
			Folder:           models.FolderTrash,
		}, nil
	case models.FolderSpam:
		return store.MailboxFilter{
			RecipientAddress: user.InternalAddress,
			Folder:           models.FolderSpam,
		}, nil
	default:
		return store.MailboxFilter{}, fmt.Errorf("unknown folder %q", folder)
	}
}

// Mailbox returns one page of a user's folder, newest first. Page numbers are
// 1-indexed; out-of-range values fall back to defaults rather than erroring.
// An empty folder means inbox.
func (e *Engine) Mailbox(ctx context.Context, userID string, folder models.Folder, page, limit int) (*MailboxPage, error) {
	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if folder == "" {
		folder = models.FolderInbox
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	filter, err := folderFilter(user, folder)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit

	messages, err := e.messages.ListMessages(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := e.messages.CountMessages(ctx, filter)
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []*models.Message{}
	}

	return &MailboxPage{Messages: messages, Total: total}, nil
}
