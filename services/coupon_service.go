// services/coupon_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/datahex-administration/ConnectionQuest/models"
)

// CouponService is the admin surface for reward campaigns: the coupon
// templates vouchers are minted from, and the minted vouchers themselves.
type CouponService struct {
	DB *gorm.DB
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{DB: db}
}

// CreateCouponTemplate creates a campaign template (Admin only)
func (s *CouponService) CreateCouponTemplate(c *fiber.Ctx) error {
	var req struct {
		Name               string              `json:"name" validate:"required"`
		DiscountType       models.DiscountType `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
		DiscountValue      int                 `json:"discount_value" validate:"required"`
		Currency           string              `json:"currency"`
		ValidityDays       int                 `json:"validity_days"`
		MinMatchPercentage int                 `json:"min_match_percentage"`
		IsActive           bool                `json:"is_active"`
		StartsAt           *time.Time          `json:"starts_at"`
		EndsAt             *time.Time          `json:"ends_at"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Template name is required"})
	}
	if req.DiscountType == "" {
		req.DiscountType = models.DiscountTypePercentage
	}
	if req.DiscountType == models.DiscountTypePercentage && (req.DiscountValue < 1 || req.DiscountValue > 100) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Percentage discount must be between 1 and 100"})
	}
	if req.DiscountType == models.DiscountTypeFixed {
		if req.DiscountValue < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fixed discount must be positive"})
		}
		if len(req.Currency) != 3 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Currency is required for fixed discounts"})
		}
	}
	if req.MinMatchPercentage < 0 || req.MinMatchPercentage > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_match_percentage must be between 0 and 100"})
	}
	if req.ValidityDays <= 0 {
		req.ValidityDays = defaultValidityDays
	}

	template := models.CouponTemplate{
		Name:               req.Name,
		DiscountType:       req.DiscountType,
		DiscountValue:      req.DiscountValue,
		Currency:           strings.ToUpper(req.Currency),
		ValidityDays:       req.ValidityDays,
		MinMatchPercentage: req.MinMatchPercentage,
		IsActive:           req.IsActive,
		StartsAt:           req.StartsAt,
		EndsAt:             req.EndsAt,
	}

	if err := s.DB.Create(&template).Error; err != nil {
		log.Printf("DB Error creating coupon template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create coupon template"})
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

// GetAllCouponTemplates lists templates, inactive ones included (Admin only)
func (s *CouponService) GetAllCouponTemplates(c *fiber.Ctx) error {
	var templates []models.CouponTemplate
	if err := s.DB.Order("min_match_percentage DESC, created_at DESC").Find(&templates).Error; err != nil {
		log.Printf("DB Error fetching coupon templates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch coupon templates"})
	}
	return c.JSON(templates)
}

// UpdateCouponTemplate updates a template (Admin only)
func (s *CouponService) UpdateCouponTemplate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	var existing models.CouponTemplate
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name               *string              `json:"name"`
		DiscountType       *models.DiscountType `json:"discount_type"`
		DiscountValue      *int                 `json:"discount_value"`
		Currency           *string              `json:"currency"`
		ValidityDays       *int                 `json:"validity_days"`
		MinMatchPercentage *int                 `json:"min_match_percentage"`
		IsActive           *bool                `json:"is_active"`
		StartsAt           *time.Time           `json:"starts_at"`
		EndsAt             *time.Time           `json:"ends_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.DiscountType != nil {
		if *req.DiscountType != models.DiscountTypePercentage && *req.DiscountType != models.DiscountTypeFixed {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid discount type"})
		}
		existing.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		existing.DiscountValue = *req.DiscountValue
	}
	if req.Currency != nil {
		existing.Currency = strings.ToUpper(*req.Currency)
	}
	if req.ValidityDays != nil {
		existing.ValidityDays = *req.ValidityDays
	}
	if req.MinMatchPercentage != nil {
		if *req.MinMatchPercentage < 0 || *req.MinMatchPercentage > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_match_percentage must be between 0 and 100"})
		}
		existing.MinMatchPercentage = *req.MinMatchPercentage
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if req.StartsAt != nil {
		existing.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		existing.EndsAt = req.EndsAt
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating coupon template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update coupon template"})
	}

	return c.JSON(existing)
}

// DeleteCouponTemplate soft-deletes a template (Admin only)
func (s *CouponService) DeleteCouponTemplate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	var template models.CouponTemplate
	if err := s.DB.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&template).Error; err != nil {
		log.Printf("DB Error deleting coupon template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete coupon template"})
	}

	return c.JSON(fiber.Map{"message": "Coupon template deleted successfully"})
}

// ListVouchers lists minted vouchers with their session codes (Admin only)
func (s *CouponService) ListVouchers(c *fiber.Ctx) error {
	type voucherRow struct {
		ID           string     `json:"id"`
		Code         string     `json:"code"`
		SessionCode  string     `json:"session_code"`
		RewardName   string     `json:"reward_name"`
		DiscountText string     `json:"discount_text"`
		ExpiresAt    time.Time  `json:"expires_at"`
		Downloaded   bool       `json:"downloaded"`
		ExportedAt   *time.Time `json:"exported_at"`
		CreatedAt    time.Time  `json:"created_at"`
	}

	query := s.DB.Table("vouchers").
		Select(`vouchers.id, vouchers.code, quiz_sessions.code AS session_code,
			vouchers.reward_name, vouchers.discount_text, vouchers.expires_at,
			vouchers.downloaded, vouchers.exported_at, vouchers.created_at`).
		Joins("JOIN quiz_sessions ON quiz_sessions.id = vouchers.session_id").
		Where("vouchers.deleted_at IS NULL").
		Order("vouchers.created_at DESC")

	switch strings.ToLower(c.Query("downloaded")) {
	case "true":
		query = query.Where("vouchers.downloaded = ?", true)
	case "false":
		query = query.Where("vouchers.downloaded = ?", false)
	}
	switch strings.ToLower(c.Query("exported")) {
	case "true":
		query = query.Where("vouchers.exported_at IS NOT NULL")
	case "false":
		query = query.Where("vouchers.exported_at IS NULL")
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		query = query.Limit(limit)
	}

	var vouchers []voucherRow
	if err := query.Scan(&vouchers).Error; err != nil {
		log.Printf("DB Error fetching vouchers: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch vouchers"})
	}

	return c.JSON(fiber.Map{"vouchers": vouchers, "count": len(vouchers)})
}
