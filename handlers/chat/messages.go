package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/validation"
)

// SendMessageRequest represents a visitor message from the widget
type SendMessageRequest struct {
	Body        string `json:"body" validate:"required,min=1,max=10000"`
	SenderName  string `json:"sender_name" validate:"omitempty,max=255"`
	SenderEmail string `json:"sender_email" validate:"omitempty,email,max=255"`

	// Attachment descriptor from a prior upload call, if any
	FileURL  string `json:"file_url" validate:"omitempty,url,max=1024"`
	FileName string `json:"file_name" validate:"omitempty,max=255"`
	FileType string `json:"file_type" validate:"omitempty,max=120"`
}

func (r *SendMessageRequest) attachment() *model.Attachment {
	if r.FileURL == "" {
		return nil
	}
	return &model.Attachment{
		URL:      r.FileURL,
		Name:     r.FileName,
		MimeType: r.FileType,
	}
}

// GetMessages handles GET /api/v1/chat/sessions/:id/messages
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if _, err := h.chatService.GetSession(c.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		return response.InternalServerError(c, "Failed to load session")
	}

	messages, err := h.chatService.GetMessages(c.Context(), sessionID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load messages")
	}

	return response.Success(c, messages)
}

// SendMessage handles POST /api/v1/chat/sessions/:id/messages (public widget)
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	return h.sendAs(c, model.SenderRoleUser)
}

// SendAdminMessage handles POST /api/v1/chat/sessions/:id/reply (operator)
func (h *ChatHandler) SendAdminMessage(c *fiber.Ctx) error {
	return h.sendAs(c, model.SenderRoleAdmin)
}

func (h *ChatHandler) sendAs(c *fiber.Ctx, role model.SenderRole) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	senderName, senderEmail := req.SenderName, req.SenderEmail
	if role == model.SenderRoleAdmin {
		admin, ok := middleware.GetAdmin(c)
		if !ok {
			return response.Unauthorized(c, "")
		}
		senderName, senderEmail = admin.Name, admin.Email
	}

	msg, err := h.chatService.SendMessage(
		c.Context(), c.Params("id"), req.Body, role, senderName, senderEmail, req.attachment(),
	)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		return response.InternalServerError(c, "Failed to send message")
	}

	return response.Created(c, msg)
}

// UploadAttachment handles POST /api/v1/chat/sessions/:id/attachments
func (h *ChatHandler) UploadAttachment(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload")
	}

	att, err := h.chatService.UploadAttachmentFile(c.Context(), c.Params("id"), file)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		if errors.Is(err, services.ErrUploadFailed) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to upload attachment")
	}

	return response.Created(c, att)
}
