package models

import "time"

// Status is the delivery lifecycle state of a message. The lifecycle is
// forward-moving only: draft -> sent -> delivered -> read, with failed as a
// terminal branch off sent. Read and failed are terminal.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// MessageType says whether a message stays on the platform or leaves it.
// It is fixed at creation.
type MessageType string

const (
	TypeInternal MessageType = "internal"
	TypeExternal MessageType = "external"
)

// Folder is a user-facing categorization tag, orthogonal to Status.
type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderSent   Folder = "sent"
	FolderDrafts Folder = "drafts"
	FolderTrash  Folder = "trash"
	FolderSpam   Folder = "spam"
)

// ValidFolder reports whether f is one of the known folders.
func ValidFolder(f Folder) bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts, FolderTrash, FolderSpam:
		return true
	default:
		return false
	}
}

// Tracking records a message's delivery history. Each timestamp is set at
// most once and is monotonically later than the previous one. The bounce
// fields are populated only when delivery fails.
type Tracking struct {
	SentAt       *time.Time `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	BounceStatus string     `json:"bounce_status,omitempty"`
	BounceReason string     `json:"bounce_reason,omitempty"`
}

type Message struct {
	ID            string      `json:"id"`
	SenderID      string      `json:"sender_id"`
	SenderAddress string      `json:"sender_address"`
	Recipients    []string    `json:"recipients"`
	Subject       string      `json:"subject"`
	Body          string      `json:"body"`
	Status        Status      `json:"status"`
	Type          MessageType `json:"type"`
	Folder        Folder      `json:"folder"`
	ReplyToID     string      `json:"reply_to_id,omitempty"`
	IsImportant   bool        `json:"is_important"`
	IsStarred     bool        `json:"is_starred"`
	Tracking      Tracking    `json:"tracking"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// HasRecipient reports whether address is one of the message's recipients.
func (m *Message) HasRecipient(address string) bool {
	for _, r := range m.Recipients {
		if r == address {
			return true
		}
	}
	return false
}

// User is the platform user as the mail engine sees it: an id and the
// internal address used for in-system routing. The engine never mutates users.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	InternalAddress string    `json:"internal_address"`
	CreatedAt       time.Time `json:"created_at"`
}

// MessageSummary is the compact shape returned by the send endpoint.
type MessageSummary struct {
	ID         string     `json:"id"`
	Subject    string     `json:"subject"`
	Recipients []string   `json:"recipients"`
	Status     Status     `json:"status"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// PaginationInfo describes one page of a mailbox listing.
type PaginationInfo struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// EmailsResponse is the mailbox listing payload.
type EmailsResponse struct {
	Emails     []*Message     `json:"emails"`
	Pagination PaginationInfo `json:"pagination"`
}
