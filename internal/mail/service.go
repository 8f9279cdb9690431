// Package mail contains the engine at the center of the platform's internal
// messaging: the delivery router, the mailbox view resolver and the access
// authorizer. Everything here is request-scoped and stateless between
// requests; the store is the only ground truth.
package mail

import (
	"context"
	"errors"
	"time"

	"github.com/hirewire/mailengine/internal/address"
	"github.com/hirewire/mailengine/internal/models"
	"github.com/hirewire/mailengine/internal/notify"
	"github.com/hirewire/mailengine/internal/store"
	"github.com/hirewire/mailengine/internal/transport"
)

// ErrForbidden is returned when a user is neither sender nor recipient of a
// message. The denial is generic: callers learn nothing about the message
// beyond not being allowed to see it.
var ErrForbidden = errors.New("forbidden")

// SendRequest carries everything needed to compose a message.
type SendRequest struct {
	SenderID   string
	Recipients []string
	Subject    string
	Body       string
	Type       models.MessageType // optional; external recipients force external
	ReplyToID  string
}

// MailboxPage is one page of a folder listing. Total counts every message
// matching the folder predicate, not just this page.
type MailboxPage struct {
	Messages []*models.Message
	Total    int
}

// Access is the result of a successful authorization check.
type Access struct {
	Message     *models.Message
	IsSender    bool
	IsRecipient bool
}

// Service is the mail engine as the HTTP layer sees it.
type Service interface {
	Send(ctx context.Context, req SendRequest) (*models.Message, error)
	SaveDraft(ctx context.Context, req SendRequest) (*models.Message, error)
	Mailbox(ctx context.Context, userID string, folder models.Folder, page, limit int) (*MailboxPage, error)
	Open(ctx context.Context, userID, messageID string) (*Access, error)
	MoveToFolder(ctx context.Context, userID, messageID string, folder models.Folder) (*models.Message, error)
	SetFlags(ctx context.Context, userID, messageID string, starred, important *bool) (*models.Message, error)
}

// Notifier publishes mail events to connected clients. *notify.Hub satisfies
// it; a nil Notifier disables notifications.
type Notifier interface {
	Publish(userID string, event notify.Event)
}

// Engine implements Service.
type Engine struct {
	messages         store.MessageStore
	users            store.UserDirectory
	classifier       *address.Classifier
	transport        transport.Transport
	notifier         Notifier
	transportTimeout time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine wires the engine. notifier may be nil.
func NewEngine(
	messages store.MessageStore,
	users store.UserDirectory,
	classifier *address.Classifier,
	tr transport.Transport,
	notifier Notifier,
	transportTimeout time.Duration,
) *Engine {
	if transportTimeout <= 0 {
		transportTimeout = 15 * time.Second
	}
	return &Engine{
		messages:         messages,
		users:            users,
		classifier:       classifier,
		transport:        tr,
		notifier:         notifier,
		transportTimeout: transportTimeout,
		now:              time.Now,
	}
}
