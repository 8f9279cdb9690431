package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirewire/mailengine/internal/models"
)

func newTestMessage(senderID string, recipients ...string) *models.Message {
	return &models.Message{
		SenderID:      senderID,
		SenderAddress: "sender@hirewire.jobs",
		Recipients:    recipients,
		Subject:       "Subject",
		Body:          "Body",
		Status:        models.StatusSent,
		Type:          models.TypeInternal,
		Folder:        models.FolderSent,
	}
}

func TestMemoryStore_CreateAndGetMessage(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	msg := newTestMessage("sender-1", "bob@hirewire.jobs")
	require.NoError(t, s.CreateMessage(ctx, msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	got, err := s.GetMessageByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, []string{"bob@hirewire.jobs"}, got.Recipients)

	_, err = s.GetMessageByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMemoryStore_CreateValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.Message)
	}{
		{"missing sender", func(m *models.Message) { m.SenderID = "" }},
		{"missing subject", func(m *models.Message) { m.Subject = "  " }},
		{"missing body", func(m *models.Message) { m.Body = "" }},
		{"no recipients on non-draft", func(m *models.Message) { m.Recipients = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := newTestMessage("sender-1", "bob@hirewire.jobs")
			tt.mutate(msg)
			err := s.CreateMessage(ctx, msg)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	t.Run("drafts may have no recipients", func(t *testing.T) {
		draft := newTestMessage("sender-1")
		draft.Status = models.StatusDraft
		draft.Folder = models.FolderDrafts
		assert.NoError(t, s.CreateMessage(ctx, draft))
	})
}

func TestMemoryStore_UpdateMessage(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	msg := newTestMessage("sender-1", "bob@hirewire.jobs")
	require.NoError(t, s.CreateMessage(ctx, msg))
	created := msg.CreatedAt

	msg.Status = models.StatusDelivered
	require.NoError(t, s.UpdateMessage(ctx, msg))

	got, err := s.GetMessageByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.False(t, got.UpdatedAt.Before(created))

	missing := newTestMessage("sender-1", "bob@hirewire.jobs")
	missing.ID = "missing"
	assert.ErrorIs(t, s.UpdateMessage(ctx, missing), ErrMessageNotFound)
}

func TestMemoryStore_ListAndCount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := newTestMessage("alice", "bob@hirewire.jobs")
		msg.Subject = fmt.Sprintf("From Alice %d", i)
		require.NoError(t, s.CreateMessage(ctx, msg))
	}
	other := newTestMessage("carol", "dave@hirewire.jobs")
	require.NoError(t, s.CreateMessage(ctx, other))

	t.Run("sender filter", func(t *testing.T) {
		list, err := s.ListMessages(ctx, MailboxFilter{SenderID: "alice"}, 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 5)

		count, err := s.CountMessages(ctx, MailboxFilter{SenderID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("recipient filter", func(t *testing.T) {
		list, err := s.ListMessages(ctx, MailboxFilter{RecipientAddress: "dave@hirewire.jobs"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, other.ID, list[0].ID)
	})

	t.Run("newest first with stable paging", func(t *testing.T) {
		first, err := s.ListMessages(ctx, MailboxFilter{SenderID: "alice"}, 2, 0)
		require.NoError(t, err)
		second, err := s.ListMessages(ctx, MailboxFilter{SenderID: "alice"}, 2, 2)
		require.NoError(t, err)
		require.Len(t, first, 2)
		require.Len(t, second, 2)

		assert.Equal(t, "From Alice 4", first[0].Subject)
		assert.Equal(t, "From Alice 3", first[1].Subject)
		assert.Equal(t, "From Alice 2", second[0].Subject)
		assert.Equal(t, "From Alice 1", second[1].Subject)
	})

	t.Run("offset beyond the end", func(t *testing.T) {
		list, err := s.ListMessages(ctx, MailboxFilter{SenderID: "alice"}, 10, 50)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("any-participant filter", func(t *testing.T) {
		filter := MailboxFilter{
			SenderID:         "carol",
			RecipientAddress: "bob@hirewire.jobs",
			AnyParticipant:   true,
		}
		count, err := s.CountMessages(ctx, filter)
		require.NoError(t, err)
		// Carol's one sent message plus Alice's five to Bob.
		assert.Equal(t, 6, count)
	})
}

func TestMemoryStore_Users(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "Alice", "alice@hirewire.jobs")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)

	byAddr, err := s.GetUserByAddress(ctx, "alice@hirewire.jobs")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byAddr.ID)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.GetUserByAddress(ctx, "missing@hirewire.jobs")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
