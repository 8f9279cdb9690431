package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirewire/mailengine/internal/models"
)

// MemoryStore implements MessageStore and UserDirectory without persistence.
// It backs unit tests and local development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	users    map[string]*models.User
	order    map[string]int64 // message id -> insertion sequence
	seq      int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]*models.Message),
		users:    make(map[string]*models.User),
		order:    make(map[string]int64),
	}
}

func copyMessage(msg *models.Message) *models.Message {
	out := *msg
	out.Recipients = append([]string(nil), msg.Recipients...)
	return &out
}

// CreateMessage validates and stores a new message, assigning a fresh id.
func (s *MemoryStore) CreateMessage(_ context.Context, msg *models.Message) error {
	if err := ValidateNewMessage(msg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	msg.ID = uuid.NewString()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	s.seq++
	s.order[msg.ID] = s.seq

	s.messages[msg.ID] = copyMessage(msg)
	return nil
}

// GetMessageByID returns a copy of the stored message.
func (s *MemoryStore) GetMessageByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return copyMessage(msg), nil
}

// UpdateMessage replaces the stored record and bumps updated_at.
func (s *MemoryStore) UpdateMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.messages[msg.ID]
	if !ok {
		return ErrMessageNotFound
	}

	msg.UpdatedAt = time.Now()
	msg.CreatedAt = existing.CreatedAt
	s.messages[msg.ID] = copyMessage(msg)
	return nil
}

func matchesFilter(msg *models.Message, filter MailboxFilter) bool {
	if filter.AnyParticipant && filter.SenderID != "" && filter.RecipientAddress != "" {
		if msg.SenderID != filter.SenderID && !msg.HasRecipient(filter.RecipientAddress) {
			return false
		}
	} else {
		if filter.SenderID != "" && msg.SenderID != filter.SenderID {
			return false
		}
		if filter.RecipientAddress != "" && !msg.HasRecipient(filter.RecipientAddress) {
			return false
		}
	}

	if filter.Status != "" && msg.Status != filter.Status {
		return false
	}
	if filter.Folder != "" && msg.Folder != filter.Folder {
		return false
	}
	return true
}

func (s *MemoryStore) collect(filter MailboxFilter) []*models.Message {
	var matched []*models.Message
	for _, msg := range s.messages {
		if matchesFilter(msg, filter) {
			matched = append(matched, msg)
		}
	}

	// Newest first; insertion sequence as tie-breaker so paging stays stable
	// when several messages share a creation instant.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return s.order[matched[i].ID] > s.order[matched[j].ID]
	})

	return matched
}

// ListMessages returns matching messages, newest first.
func (s *MemoryStore) ListMessages(_ context.Context, filter MailboxFilter, limit, offset int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.collect(filter)

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.Message, 0, len(matched))
	for _, msg := range matched {
		out = append(out, copyMessage(msg))
	}
	return out, nil
}

// CountMessages returns the number of matching messages.
func (s *MemoryStore) CountMessages(_ context.Context, filter MailboxFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.collect(filter)), nil
}

// GetUserByID returns a user by id.
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

// GetUserByAddress returns a user by their internal address.
func (s *MemoryStore) GetUserByAddress(_ context.Context, address string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.InternalAddress == address {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

// CreateUser stores a new user.
func (s *MemoryStore) CreateUser(_ context.Context, name, internalAddress string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &models.User{
		ID:              uuid.NewString(),
		Name:            name,
		InternalAddress: internalAddress,
		CreatedAt:       time.Now(),
	}
	s.users[user.ID] = user

	out := *user
	return &out, nil
}
