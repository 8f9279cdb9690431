package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/hirewire/mailengine/internal/mail"
	"github.com/hirewire/mailengine/internal/models"
)

// EmailsHandler handles the /api/v1/emails endpoints.
type EmailsHandler struct {
	service mail.Service
}

// NewEmailsHandler creates a new EmailsHandler instance.
func NewEmailsHandler(service mail.Service) *EmailsHandler {
	return &EmailsHandler{service: service}
}

// SendRequestBody is the wire shape of a send or draft request.
type SendRequestBody struct {
	SenderID   string   `json:"sender_id"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Type       string   `json:"type,omitempty"`
	ReplyToID  string   `json:"reply_to_id,omitempty"`
}

// FlagsRequestBody toggles per-message flags; absent fields are untouched.
type FlagsRequestBody struct {
	IsStarred   *bool `json:"is_starred,omitempty"`
	IsImportant *bool `json:"is_important,omitempty"`
}

func (b *SendRequestBody) toSendRequest() mail.SendRequest {
	return mail.SendRequest{
		SenderID:   b.SenderID,
		Recipients: b.Recipients,
		Subject:    b.Subject,
		Body:       b.Body,
		Type:       models.MessageType(b.Type),
		ReplyToID:  b.ReplyToID,
	}
}

func summarize(msg *models.Message) *models.MessageSummary {
	return &models.MessageSummary{
		ID:         msg.ID,
		Subject:    msg.Subject,
		Recipients: msg.Recipients,
		Status:     msg.Status,
		SentAt:     msg.Tracking.SentAt,
	}
}

// Send routes a new message. Transport failures do not fail the request:
// the message was recorded, and the outcome lives on its tracking record.
func (h *EmailsHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("EmailsHandler: Failed to decode request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.Send(ctx, body.toSendRequest())
	if err != nil {
		WriteServiceError(w, "EmailsHandler: Failed to send", err)
		return
	}

	if !WriteJSONResponse(w, map[string]*models.MessageSummary{"message": summarize(msg)}) {
		return
	}
}

// SaveDraft persists a message without routing it.
func (h *EmailsHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("EmailsHandler: Failed to decode request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.SaveDraft(ctx, body.toSendRequest())
	if err != nil {
		WriteServiceError(w, "EmailsHandler: Failed to save draft", err)
		return
	}

	if !WriteJSONResponse(w, map[string]*models.MessageSummary{"message": summarize(msg)}) {
		return
	}
}

// GetEmails returns a paginated folder listing for a user.
func (h *EmailsHandler) GetEmails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	folder := models.Folder(r.URL.Query().Get("folder"))
	if folder != "" && !models.ValidFolder(folder) {
		http.Error(w, "unknown folder", http.StatusBadRequest)
		return
	}

	page, limit := ParsePaginationParams(r, mail.DefaultPageSize)

	result, err := h.service.Mailbox(ctx, userID, folder, page, limit)
	if err != nil {
		WriteServiceError(w, "EmailsHandler: Failed to list mailbox", err)
		return
	}

	pages := result.Total / limit
	if result.Total%limit != 0 {
		pages++
	}

	response := &models.EmailsResponse{
		Emails: result.Messages,
		Pagination: models.PaginationInfo{
			Total: result.Total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}

	if !WriteJSONResponse(w, response) {
		return
	}
}

// HandleEmail dispatches /api/v1/emails/{id} and /api/v1/emails/{id}/flags.
func (h *EmailsHandler) HandleEmail(w http.ResponseWriter, r *http.Request) {
	// Path is /api/v1/emails/{id} or /api/v1/emails/{id}/flags.
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/emails/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "message id is required", http.StatusBadRequest)
		return
	}
	messageID := pathParts[0]

	if len(pathParts) > 1 {
		if pathParts[1] == "flags" && r.Method == http.MethodPatch {
			h.patchFlags(w, r, messageID)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getEmail(w, r, messageID)
	case http.MethodDelete:
		h.deleteEmail(w, r, messageID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getEmail returns a single message. Opening it as a recipient marks it read.
func (h *EmailsHandler) getEmail(w http.ResponseWriter, r *http.Request, messageID string) {
	ctx := r.Context()

	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	access, err := h.service.Open(ctx, userID, messageID)
	if err != nil {
		WriteServiceError(w, "EmailsHandler: Failed to open message", err)
		return
	}

	if !WriteJSONResponse(w, map[string]*models.Message{"email": access.Message}) {
		return
	}
}

// deleteEmail moves the message to trash. Nothing is ever removed from the
// store here.
func (h *EmailsHandler) deleteEmail(w http.ResponseWriter, r *http.Request, messageID string) {
	ctx := r.Context()

	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	msg, err := h.service.MoveToFolder(ctx, userID, messageID, models.FolderTrash)
	if err != nil {
		WriteServiceError(w, "EmailsHandler: Failed to move message to trash", err)
		return
	}

	if !WriteJSONResponse(w, map[string]*models.Message{"email": msg}) {
		return
	}
}

// patchFlags toggles starred/important.
func (h *EmailsHandler) patchFlags(w http.ResponseWriter, r *http.Request, messageID string) {
	ctx := r.Context()

	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	var body FlagsRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("EmailsHandler: Failed to decode request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.SetFlags(ctx, userID, messageID, body.IsStarred, body.IsImportant)
	if err != nil {
		WriteServiceError(w, "EmailsHandler: Failed to set flags", err)
		return
	}

	if !WriteJSONResponse(w, map[string]*models.Message{"email": msg}) {
		return
	}
}
