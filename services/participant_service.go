// services/participant_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datahex-administration/ConnectionQuest/models"
)

// ParticipantService manages the people playing quizzes. Registration is
// public; everything else is admin tooling.
type ParticipantService struct {
	DB *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{DB: db}
}

// RegisterParticipant handles POST /participants. Registering the same
// external ID again returns the existing participant instead of a duplicate.
func (s *ParticipantService) RegisterParticipant(c *fiber.Ctx) error {
	var req struct {
		Name       string  `json:"name" validate:"required"`
		Email      string  `json:"email"`
		Phone      string  `json:"phone"`
		ExternalID *string `json:"external_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	if req.ExternalID != nil && *req.ExternalID != "" {
		var existing models.Participant
		err := s.DB.First(&existing, "external_id = ?", *req.ExternalID).Error
		if err == nil {
			return c.JSON(existing)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("DB Error looking up participant by external ID: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
	}

	participant := models.Participant{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      req.Phone,
		ExternalID: req.ExternalID,
	}
	if err := s.DB.Create(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race on the external ID, the row exists now
			var existing models.Participant
			if lookupErr := s.DB.First(&existing, "external_id = ?", *req.ExternalID).Error; lookupErr == nil {
				return c.JSON(existing)
			}
		}
		log.Printf("DB Error creating participant: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register participant"})
	}

	return c.Status(fiber.StatusCreated).JSON(participant)
}

// SearchParticipants searches registered participants by name, email or phone.
func (s *ParticipantService) SearchParticipants(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var participants []models.Participant
	db := s.DB.Model(&models.Participant{}).Limit(limit).Order("created_at DESC")

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}

	if err := db.Find(&participants).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Minimal response struct so internal fields stay internal
	type ParticipantSummary struct {
		ID         string  `json:"id"`
		ExternalID *string `json:"external_id"`
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Phone      string  `json:"phone"`
	}

	res := make([]ParticipantSummary, len(participants))
	for i, p := range participants {
		res[i] = ParticipantSummary{
			ID:         p.ID,
			ExternalID: p.ExternalID,
			Name:       p.Name,
			Email:      p.Email,
			Phone:      p.Phone,
		}
	}

	return c.JSON(res)
}
