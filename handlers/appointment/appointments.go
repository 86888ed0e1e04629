package appointment

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/services/spaces"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/validation"
	"gorm.io/gorm"
)

// AppointmentHandler handles appraisal appointment requests
type AppointmentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	email     *services.EmailService
	spaces    *spaces.SpacesClient
	audit     *services.AuditService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(db *gorm.DB, email *services.EmailService, spacesClient *spaces.SpacesClient, audit *services.AuditService) *AppointmentHandler {
	return &AppointmentHandler{
		db:        db,
		validator: validation.NewValidator(),
		email:     email,
		spaces:    spacesClient,
		audit:     audit,
	}
}

// CreateAppointmentRequest represents a public booking submission
type CreateAppointmentRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" form:"phone" validate:"required,min=6,max=50"`
	Location string `json:"location" form:"location" validate:"required,max=255"`
	ItemType string `json:"item_type" form:"item_type" validate:"required,max=120"`
	DateTime string `json:"date_time" form:"date_time" validate:"required"`
	Notes    string `json:"notes" form:"notes" validate:"omitempty,max=2000"`
}

// UpdateAppointmentStatusRequest represents an operator status change
type UpdateAppointmentStatusRequest struct {
	Status model.AppointmentStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

// Create handles POST /api/v1/appointments (public). The form optionally
// carries an item photo which is stored on Spaces before insert.
func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	var req CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	when, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		return response.BadRequest(c, "date_time must be RFC 3339")
	}
	if when.Before(time.Now()) {
		return response.BadRequest(c, "Appointment must be in the future")
	}

	appt := model.Appointment{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Location: req.Location,
		ItemType: req.ItemType,
		DateTime: when.UTC(),
		Notes:    req.Notes,
		Status:   model.AppointmentStatusPending,
	}

	// Optional item photo
	if file, err := c.FormFile("photo"); err == nil && h.spaces != nil {
		src, err := file.Open()
		if err == nil {
			key := spaces.AppointmentPhotoKey(file.Filename)
			url, upErr := h.spaces.UploadFile(c.Context(), key, src, file.Header.Get("Content-Type"))
			src.Close()
			if upErr != nil {
				log.Printf("Warning: appointment photo upload failed: %v", upErr)
			} else {
				appt.PhotoURL = url
			}
		}
	}

	if err := h.db.Create(&appt).Error; err != nil {
		return response.InternalServerError(c, "Failed to book appointment")
	}

	if err := h.email.SendAppointmentConfirmation(&appt); err != nil {
		log.Printf("Warning: confirmation email failed for appointment %s: %v", appt.ID, err)
	}
	if err := h.email.NotifyAdmin(
		"New appointment booked - PureTrust Gold",
		"A new appraisal appointment was booked",
		fmt.Sprintf("%s booked a visit to the %s showroom for %s.",
			appt.Name, appt.Location, appt.DateTime.Format("Monday, 2 January 2006 at 15:04")),
	); err != nil {
		log.Printf("Warning: admin notification failed for appointment %s: %v", appt.ID, err)
	}

	return response.Created(c, appt)
}

// List handles GET /api/v1/appointments (operator)
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	status := c.Query("status", "")
	location := c.Query("location", "")

	query := h.db.Model(&model.Appointment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if location != "" {
		query = query.Where("location = ?", location)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count appointments")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var appointments []model.Appointment
	err := query.
		Order("date_time ASC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&appointments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load appointments")
	}

	return response.Paginated(c, appointments, pagination)
}

// UpdateStatus handles PATCH /api/v1/appointments/:id/status (operator)
func (h *AppointmentHandler) UpdateStatus(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateAppointmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	var appt model.Appointment
	if err := h.db.First(&appt, "id = ?", c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Appointment not found")
		}
		return response.InternalServerError(c, "Failed to load appointment")
	}

	if err := h.db.Model(&appt).Update("status", req.Status).Error; err != nil {
		return response.InternalServerError(c, "Failed to update appointment")
	}
	appt.Status = req.Status

	h.audit.Record(c, admin.ID, "appointment_status", "appointments", appt.ID, map[string]interface{}{
		"status": req.Status,
	})

	return response.Success(c, appt)
}
