package transport

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/validation"
	"gorm.io/gorm"
)

// TransportHandler handles secure transport bookings
type TransportHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	email     *services.EmailService
	audit     *services.AuditService
}

// NewTransportHandler creates a new transport handler
func NewTransportHandler(db *gorm.DB, email *services.EmailService, audit *services.AuditService) *TransportHandler {
	return &TransportHandler{
		db:        db,
		validator: validation.NewValidator(),
		email:     email,
		audit:     audit,
	}
}

// CreateTransportRequest represents a public transport booking
type CreateTransportRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=255"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Phone           string `json:"phone" validate:"required,min=6,max=50"`
	PickupAddress   string `json:"pickup_address" validate:"required,min=10,max=2000"`
	EstimatedValue  string `json:"estimated_value" validate:"required,max=120"`
	ItemDescription string `json:"item_description" validate:"omitempty,max=5000"`
	PreferredDate   string `json:"preferred_date" validate:"omitempty"`
	Notes           string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateTransportStatusRequest represents an operator status change
type UpdateTransportStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

// Create handles POST /api/v1/transport-requests (public)
func (h *TransportHandler) Create(c *fiber.Ctx) error {
	var req CreateTransportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	var preferred *time.Time
	if req.PreferredDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PreferredDate)
		if err != nil {
			return response.BadRequest(c, "preferred_date must be YYYY-MM-DD")
		}
		preferred = &parsed
	}

	tr := model.TransportRequest{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		PickupAddress:   req.PickupAddress,
		EstimatedValue:  req.EstimatedValue,
		ItemDescription: req.ItemDescription,
		PreferredDate:   preferred,
		Notes:           req.Notes,
		Status:          "PENDING",
	}
	if err := h.db.Create(&tr).Error; err != nil {
		return response.InternalServerError(c, "Failed to submit transport request")
	}

	if err := h.email.SendTransportConfirmation(&tr); err != nil {
		log.Printf("Warning: confirmation email failed for transport request %s: %v", tr.ID, err)
	}
	if err := h.email.NotifyAdmin(
		"New secure transport request - PureTrust Gold",
		"A new secure transport request came in",
		fmt.Sprintf("%s requested an insured collection from %s (estimated value %s).",
			tr.Name, tr.PickupAddress, tr.EstimatedValue),
	); err != nil {
		log.Printf("Warning: admin notification failed for transport request %s: %v", tr.ID, err)
	}

	return response.Created(c, tr)
}

// List handles GET /api/v1/transport-requests (operator)
func (h *TransportHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	status := c.Query("status", "")

	query := h.db.Model(&model.TransportRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count transport requests")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var requests []model.TransportRequest
	err := query.
		Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&requests).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load transport requests")
	}

	return response.Paginated(c, requests, pagination)
}

// UpdateStatus handles PATCH /api/v1/transport-requests/:id/status (operator)
func (h *TransportHandler) UpdateStatus(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateTransportStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	var tr model.TransportRequest
	if err := h.db.First(&tr, "id = ?", c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Transport request not found")
		}
		return response.InternalServerError(c, "Failed to load transport request")
	}

	if err := h.db.Model(&tr).Update("status", req.Status).Error; err != nil {
		return response.InternalServerError(c, "Failed to update transport request")
	}
	tr.Status = req.Status

	h.audit.Record(c, admin.ID, "transport_status", "transport_requests", tr.ID, map[string]interface{}{
		"status": req.Status,
	})

	return response.Success(c, tr)
}
