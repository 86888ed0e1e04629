package services

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService records back-office actions. Audit writes are best effort and
// never fail the action they describe.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit log entry with request context
func (s *AuditService) Record(c *fiber.Ctx, adminID uint, action, resource, resourceID string, metadata map[string]interface{}) {
	entry := model.AdminAuditLog{
		AdminID:    adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}

	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(data)
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("Warning: failed to record audit log for %s/%s: %v", resource, action, err)
	}
}
