package contact

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/validation"
	"gorm.io/gorm"
)

// ContactHandler handles contact form enquiries
type ContactHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	email     *services.EmailService
	audit     *services.AuditService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(db *gorm.DB, email *services.EmailService, audit *services.AuditService) *ContactHandler {
	return &ContactHandler{
		db:        db,
		validator: validation.NewValidator(),
		email:     email,
		audit:     audit,
	}
}

// CreateContactRequest represents a public contact form submission
type CreateContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,min=2,max=255"`
	Message string `json:"message" validate:"required,min=10,max=10000"`
}

// ReplyRequest represents an operator reply to an enquiry
type ReplyRequest struct {
	Body string `json:"body" validate:"required,min=2,max=10000"`
}

// Create handles POST /api/v1/contact (public)
func (h *ContactHandler) Create(c *fiber.Ctx) error {
	var req CreateContactRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	msg := model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Status:  model.ContactStatusUnread,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		return response.InternalServerError(c, "Failed to submit message")
	}

	if err := h.email.SendContactAcknowledgement(&msg); err != nil {
		log.Printf("Warning: acknowledgement email failed for contact %s: %v", msg.ID, err)
	}

	return response.Created(c, msg)
}

// List handles GET /api/v1/contact (operator)
func (h *ContactHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	status := c.Query("status", "")

	query := h.db.Model(&model.ContactMessage{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count messages")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var messages []model.ContactMessage
	err := query.
		Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&messages).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load messages")
	}

	return response.Paginated(c, messages, pagination)
}

// MarkRead handles POST /api/v1/contact/:id/read (operator)
func (h *ContactHandler) MarkRead(c *fiber.Ctx) error {
	var msg model.ContactMessage
	if err := h.db.First(&msg, "id = ?", c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to load message")
	}

	if msg.Status == model.ContactStatusUnread {
		if err := h.db.Model(&msg).Update("status", model.ContactStatusRead).Error; err != nil {
			return response.InternalServerError(c, "Failed to update message")
		}
		msg.Status = model.ContactStatusRead
	}

	return response.Success(c, msg)
}

// Reply handles POST /api/v1/contact/:id/reply (operator). The reply is
// emailed to the enquirer and the message moves to REPLIED.
func (h *ContactHandler) Reply(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	var msg model.ContactMessage
	if err := h.db.First(&msg, "id = ?", c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to load message")
	}

	if err := h.email.SendContactReply(&msg, req.Body); err != nil {
		return response.ServiceUnavailable(c, "Failed to send reply email")
	}

	if err := h.db.Model(&msg).Update("status", model.ContactStatusReplied).Error; err != nil {
		log.Printf("Warning: failed to flag contact %s replied: %v", msg.ID, err)
	}
	msg.Status = model.ContactStatusReplied

	h.audit.Record(c, admin.ID, "contact_reply", "contact_messages", msg.ID, nil)

	return response.Success(c, msg)
}
