package api

import (
	"context"
	"testing"
	"time"

	"github.com/hirewire/mailengine/internal/address"
	"github.com/hirewire/mailengine/internal/mail"
	"github.com/hirewire/mailengine/internal/models"
	"github.com/hirewire/mailengine/internal/store"
)

// noopTransport succeeds without doing anything; handler tests care about
// HTTP behavior, not SMTP.
type noopTransport struct{}

func (noopTransport) Send(context.Context, string, []string, string, string) error {
	return nil
}

// newTestEngine builds a mail engine over the in-memory store for handler tests.
func newTestEngine(t *testing.T) (*mail.Engine, *store.MemoryStore) {
	t.Helper()

	memStore := store.NewMemoryStore()
	classifier := address.NewClassifier("hirewire.jobs")
	engine := mail.NewEngine(memStore, memStore, classifier, noopTransport{}, nil, time.Second)
	return engine, memStore
}

// createTestUser provisions a user in the test store.
func createTestUser(t *testing.T, s *store.MemoryStore, name, addr string) *models.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), name, addr)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}
