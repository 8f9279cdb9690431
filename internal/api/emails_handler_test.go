package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirewire/mailengine/internal/mail"
	"github.com/hirewire/mailengine/internal/models"
)

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", url, bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	handlerFunc(rr, req)
	return rr
}

func TestEmailsHandler_Send(t *testing.T) {
	engine, memStore := newTestEngine(t)
	handler := NewEmailsHandler(engine)

	alice := createTestUser(t, memStore, "Alice", "alice@hirewire.jobs")

	t.Run("sends a message and returns its summary", func(t *testing.T) {
		rr := postJSON(t, handler.Send, "/api/v1/emails/send", SendRequestBody{
			SenderID:   alice.ID,
			Recipients: []string{"bob@hirewire.jobs"},
			Subject:    "Hello",
			Body:       "World",
		})

		require.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Message models.MessageSummary `json:"message"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.NotEmpty(t, response.Message.ID)
		assert.Equal(t, "Hello", response.Message.Subject)
		assert.Equal(t, []string{"bob@hirewire.jobs"}, response.Message.Recipients)
		assert.Equal(t, models.StatusDelivered, response.Message.Status)
		assert.NotNil(t, response.Message.SentAt)
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		rr := postJSON(t, handler.Send, "/api/v1/emails/send", SendRequestBody{
			SenderID: alice.ID,
			Subject:  "No recipients",
			Body:     "Body",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/emails/send", bytes.NewReader([]byte("{not json")))
		rr := httptest.NewRecorder()
		handler.Send(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns 404 on unknown sender", func(t *testing.T) {
		rr := postJSON(t, handler.Send, "/api/v1/emails/send", SendRequestBody{
			SenderID:   "missing",
			Recipients: []string{"bob@hirewire.jobs"},
			Subject:    "Hello",
			Body:       "World",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEmailsHandler_GetEmails(t *testing.T) {
	engine, memStore := newTestEngine(t)
	handler := NewEmailsHandler(engine)

	alice := createTestUser(t, memStore, "Alice", "alice@hirewire.jobs")
	bob := createTestUser(t, memStore, "Bob", "bob@hirewire.jobs")

	for i := 0; i < 25; i++ {
		_, err := engine.Send(context.Background(), mail.SendRequest{
			SenderID:   alice.ID,
			Recipients: []string{bob.InternalAddress},
			Subject:    fmt.Sprintf("Message %d", i),
			Body:       "Body",
		})
		require.NoError(t, err)
	}

	t.Run("returns 400 when userId is missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails?folder=inbox", nil)
		rr := httptest.NewRecorder()
		handler.GetEmails(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns 404 for unknown user", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails?userId=missing", nil)
		rr := httptest.NewRecorder()
		handler.GetEmails(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("returns 400 for unknown folder", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails?userId="+bob.ID+"&folder=archive", nil)
		rr := httptest.NewRecorder()
		handler.GetEmails(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lists the inbox with default pagination", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails?userId="+bob.ID, nil)
		rr := httptest.NewRecorder()
		handler.GetEmails(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var response models.EmailsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.Len(t, response.Emails, 20)
		assert.Equal(t, 25, response.Pagination.Total)
		assert.Equal(t, 1, response.Pagination.Page)
		assert.Equal(t, 20, response.Pagination.Limit)
		assert.Equal(t, 2, response.Pagination.Pages)
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails?userId="+bob.ID+"&page=2&limit=20", nil)
		rr := httptest.NewRecorder()
		handler.GetEmails(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var response models.EmailsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.Len(t, response.Emails, 5)
		assert.Equal(t, 2, response.Pagination.Page)
	})

	t.Run("unparsable pagination falls back to defaults", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails?userId="+bob.ID+"&page=abc&limit=-3", nil)
		rr := httptest.NewRecorder()
		handler.GetEmails(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var response models.EmailsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.Equal(t, 1, response.Pagination.Page)
		assert.Equal(t, 20, response.Pagination.Limit)
	})
}

func TestEmailsHandler_GetEmail(t *testing.T) {
	engine, memStore := newTestEngine(t)
	handler := NewEmailsHandler(engine)

	alice := createTestUser(t, memStore, "Alice", "alice@hirewire.jobs")
	bob := createTestUser(t, memStore, "Bob", "bob@hirewire.jobs")
	carol := createTestUser(t, memStore, "Carol", "carol@hirewire.jobs")

	msg, err := engine.Send(context.Background(), mail.SendRequest{
		SenderID:   alice.ID,
		Recipients: []string{bob.InternalAddress},
		Subject:    "Hello",
		Body:       "World",
	})
	require.NoError(t, err)

	get := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/v1/emails/"+msg.ID+"?userId="+userID, nil)
		rr := httptest.NewRecorder()
		handler.HandleEmail(rr, req)
		return rr
	}

	t.Run("recipient view marks the message read", func(t *testing.T) {
		rr := get(bob.ID)
		require.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Email models.Message `json:"email"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.Equal(t, models.StatusRead, response.Email.Status)
		assert.NotNil(t, response.Email.Tracking.ReadAt)
	})

	t.Run("sender view does not change status", func(t *testing.T) {
		rr := get(alice.ID)
		require.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Email models.Message `json:"email"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		// Already read by Bob; Alice's view leaves it there.
		assert.Equal(t, models.StatusRead, response.Email.Status)
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		rr := get(carol.ID)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("missing userId is a 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails/"+msg.ID, nil)
		rr := httptest.NewRecorder()
		handler.HandleEmail(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown message is a 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/emails/unknown?userId="+bob.ID, nil)
		rr := httptest.NewRecorder()
		handler.HandleEmail(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEmailsHandler_DeleteEmail(t *testing.T) {
	engine, memStore := newTestEngine(t)
	handler := NewEmailsHandler(engine)

	alice := createTestUser(t, memStore, "Alice", "alice@hirewire.jobs")
	bob := createTestUser(t, memStore, "Bob", "bob@hirewire.jobs")

	msg, err := engine.Send(context.Background(), mail.SendRequest{
		SenderID:   alice.ID,
		Recipients: []string{bob.InternalAddress},
		Subject:    "Hello",
		Body:       "World",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/api/v1/emails/"+msg.ID+"?userId="+bob.ID, nil)
	rr := httptest.NewRecorder()
	handler.HandleEmail(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Email models.Message `json:"email"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, models.FolderTrash, response.Email.Folder)

	// The record still exists; delete is a folder move.
	stored, err := memStore.GetMessageByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FolderTrash, stored.Folder)
}

func TestEmailsHandler_PatchFlags(t *testing.T) {
	engine, memStore := newTestEngine(t)
	handler := NewEmailsHandler(engine)

	alice := createTestUser(t, memStore, "Alice", "alice@hirewire.jobs")
	bob := createTestUser(t, memStore, "Bob", "bob@hirewire.jobs")

	msg, err := engine.Send(context.Background(), mail.SendRequest{
		SenderID:   alice.ID,
		Recipients: []string{bob.InternalAddress},
		Subject:    "Hello",
		Body:       "World",
	})
	require.NoError(t, err)

	starred := true
	payload, err := json.Marshal(FlagsRequestBody{IsStarred: &starred})
	require.NoError(t, err)

	req := httptest.NewRequest("PATCH", "/api/v1/emails/"+msg.ID+"/flags?userId="+bob.ID, bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	handler.HandleEmail(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Email models.Message `json:"email"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.True(t, response.Email.IsStarred)
	assert.False(t, response.Email.IsImportant)
}

func TestEmailsHandler_SaveDraft(t *testing.T) {
	engine, memStore := newTestEngine(t)
	handler := NewEmailsHandler(engine)

	alice := createTestUser(t, memStore, "Alice", "alice@hirewire.jobs")

	rr := postJSON(t, handler.SaveDraft, "/api/v1/emails/drafts", SendRequestBody{
		SenderID: alice.ID,
		Subject:  "Unfinished",
		Body:     "Draft body",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Message models.MessageSummary `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, models.StatusDraft, response.Message.Status)
	assert.Nil(t, response.Message.SentAt)
}
