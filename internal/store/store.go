// Package store is the persistence boundary of the mail engine. The routing
// and authorization logic only ever talks to the MessageStore and
// UserDirectory interfaces, so the backing technology is swappable: the
// production backend is Postgres, tests mostly run against the in-memory
// implementation.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hirewire/mailengine/internal/models"
)

// ErrMessageNotFound is returned when a requested message cannot be found.
var ErrMessageNotFound = errors.New("message not found")

// ErrUserNotFound is returned when a requested user cannot be found.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidMessage is returned when a message fails validation on create.
// Callers wrap it with field detail; check with errors.Is.
var ErrInvalidMessage = errors.New("invalid message")

// MailboxFilter is the closed predicate vocabulary the mailbox resolver
// speaks. Zero-valued fields are not part of the predicate. When both
// SenderID and RecipientAddress are set with AnyParticipant, the message
// matches if either side matches (the trash-folder rule); otherwise set
// fields are combined with AND.
type MailboxFilter struct {
	SenderID         string
	RecipientAddress string
	AnyParticipant   bool
	Status           models.Status
	Folder           models.Folder
}

// MessageStore is the ground truth for messages.
type MessageStore interface {
	// CreateMessage validates and persists a new message, assigning its id
	// and created/updated timestamps. Returns ErrInvalidMessage (wrapped)
	// when required fields are missing.
	CreateMessage(ctx context.Context, msg *models.Message) error

	// GetMessageByID returns ErrMessageNotFound when absent.
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)

	// UpdateMessage replaces the whole record and bumps updated_at.
	// Returns ErrMessageNotFound when the message does not exist.
	UpdateMessage(ctx context.Context, msg *models.Message) error

	// ListMessages returns messages matching the filter, sorted by
	// created_at descending (stable), windowed by limit/offset.
	ListMessages(ctx context.Context, filter MailboxFilter, limit, offset int) ([]*models.Message, error)

	// CountMessages returns the total number of messages matching the
	// filter, regardless of pagination.
	CountMessages(ctx context.Context, filter MailboxFilter) (int, error)
}

// UserDirectory resolves platform users. The mail engine treats users as
// read-only apart from CreateUser, which exists for provisioning and tests.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByAddress(ctx context.Context, address string) (*models.User, error)
	CreateUser(ctx context.Context, name, internalAddress string) (*models.User, error)
}

// ValidateNewMessage applies the create-time validation shared by all
// MessageStore implementations: sender, subject and body are required, and
// recipients must be non-empty unless the message is a draft.
func ValidateNewMessage(msg *models.Message) error {
	if msg.SenderID == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	if msg.Status != models.StatusDraft && len(msg.Recipients) == 0 {
		return fmt.Errorf("%w: recipients must not be empty", ErrInvalidMessage)
	}
	return nil
}
