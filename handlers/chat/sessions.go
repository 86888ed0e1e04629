// Package chat exposes the live chat HTTP surface: the public widget
// endpoints and the authenticated operator endpoints.
package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/livefeed"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/validation"
	"gorm.io/gorm"
)

// ChatHandler handles chat-related requests
type ChatHandler struct {
	db          *gorm.DB
	validator   *validation.Validator
	chatService *services.ChatService
	feed        livefeed.Feed
	audit       *services.AuditService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(db *gorm.DB, chatService *services.ChatService, feed livefeed.Feed, audit *services.AuditService) *ChatHandler {
	return &ChatHandler{
		db:          db,
		validator:   validation.NewValidator(),
		chatService: chatService,
		feed:        feed,
		audit:       audit,
	}
}

// OpenSessionRequest represents the widget's session handshake
type OpenSessionRequest struct {
	VisitorName  string `json:"visitor_name" validate:"required,min=1,max=255"`
	VisitorEmail string `json:"visitor_email" validate:"omitempty,email,max=255"`
}

// UpdateStatusRequest represents an operator changing a session's lifecycle
type UpdateStatusRequest struct {
	Status model.SessionStatus `json:"status" validate:"required,oneof=active waiting closed"`
}

// OpenSession handles POST /api/v1/chat/sessions (public, widget handshake)
func (h *ChatHandler) OpenSession(c *fiber.Ctx) error {
	var req OpenSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	session, err := h.chatService.GetOrCreateSession(c.Context(), req.VisitorName, req.VisitorEmail)
	if err != nil {
		return response.ServiceUnavailable(c, "Chat is temporarily unavailable")
	}

	return response.Success(c, session)
}

// SessionListItem is a session decorated with its unread visitor
// message count for the operator queue.
type SessionListItem struct {
	model.ChatSession
	UnreadCount int64 `json:"unread_count"`
}

// ListSessions handles GET /api/v1/chat/sessions (operator queue)
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.chatService.ListOpenSessions(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load sessions")
	}

	counts, err := h.chatService.UnreadCountsBySession(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load sessions")
	}

	items := make([]SessionListItem, len(sessions))
	for i, s := range sessions {
		items[i] = SessionListItem{ChatSession: s, UnreadCount: counts[s.ID]}
	}

	return response.Success(c, items)
}

// GetSession handles GET /api/v1/chat/sessions/:id
func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.chatService.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		return response.InternalServerError(c, "Failed to load session")
	}

	return response.Success(c, session)
}

// UpdateStatus handles PATCH /api/v1/chat/sessions/:id/status (operator)
func (h *ChatHandler) UpdateStatus(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	session, err := h.chatService.UpdateSessionStatus(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		return response.InternalServerError(c, "Failed to update session")
	}

	h.audit.Record(c, admin.ID, "session_status", "chat_sessions", session.ID, map[string]interface{}{
		"status": req.Status,
	})

	return response.Success(c, session)
}

// MarkRead handles POST /api/v1/chat/sessions/:id/read (operator)
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if _, err := h.chatService.GetSession(c.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		return response.InternalServerError(c, "Failed to load session")
	}

	if err := h.chatService.MarkSessionRead(c.Context(), sessionID); err != nil {
		return response.InternalServerError(c, "Failed to mark session read")
	}

	return response.SuccessWithMessage(c, "Session marked read", nil)
}
