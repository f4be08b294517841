// services/branding_service.go
package services

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/utils"
)

// BrandingService manages the venue customization images (logo, background,
// result banner) served to the quiz client. Files live in R2, one per slot.
type BrandingService struct {
	DB *gorm.DB
}

func NewBrandingService(db *gorm.DB) *BrandingService {
	return &BrandingService{DB: db}
}

func validSlot(slot string) bool {
	switch slot {
	case models.BrandingSlotLogo, models.BrandingSlotBackground, models.BrandingSlotResultBanner:
		return true
	}
	return false
}

// GetBranding returns the slot -> URL map the quiz client renders with.
func (s *BrandingService) GetBranding(c *fiber.Ctx) error {
	var assets []models.BrandingAsset
	if err := s.DB.Find(&assets).Error; err != nil {
		log.Printf("DB Error fetching branding: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch branding"})
	}

	out := fiber.Map{}
	for _, a := range assets {
		out[a.Slot] = a.FileURL
	}
	return c.JSON(out)
}

// UploadBrandingAsset handles PUT /admin/branding/:slot with a multipart
// "file" field. Uploading to an occupied slot replaces the asset and
// removes the old object from R2.
func (s *BrandingService) UploadBrandingAsset(c *fiber.Ctx) error {
	slot := c.Params("slot")
	if !validSlot(slot) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branding slot"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if file.Size > 10*1024*1024 { // 10MB
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file too large (max 10MB)"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	base := slug.Make(strings.TrimSuffix(file.Filename, ext))
	if base == "" {
		base = slot
	}
	key := fmt.Sprintf("branding/%s/%s-%s%s", slot, base, uuid.NewString(), ext)

	fileURL, err := utils.UploadFileToR2(file, key)
	if err != nil {
		log.Printf("❌ Failed to upload branding asset: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload branding asset"})
	}

	var previous models.BrandingAsset
	hadPrevious := s.DB.First(&previous, "slot = ?", slot).Error == nil

	asset := models.BrandingAsset{
		ID:        uuid.NewString(),
		Slot:      slot,
		FileURL:   fileURL,
		ObjectKey: key,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_url", "object_key", "updated_at"}),
	}).Create(&asset).Error
	if err != nil {
		log.Printf("DB Error saving branding asset: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save branding asset"})
	}

	if hadPrevious && previous.ObjectKey != "" && previous.ObjectKey != key {
		if err := utils.DeleteFileFromR2(previous.ObjectKey); err != nil {
			log.Printf("⚠️ Failed to delete replaced branding object %s: %v", previous.ObjectKey, err)
		}
	}

	return c.JSON(fiber.Map{"slot": slot, "file_url": fileURL})
}

// DeleteBrandingAsset clears a slot (Admin only)
func (s *BrandingService) DeleteBrandingAsset(c *fiber.Ctx) error {
	slot := c.Params("slot")
	if !validSlot(slot) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branding slot"})
	}

	var asset models.BrandingAsset
	if err := s.DB.First(&asset, "slot = ?", slot).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branding slot is empty"})
	}

	if err := utils.DeleteFileFromR2(asset.ObjectKey); err != nil {
		log.Printf("⚠️ Failed to delete branding object %s: %v", asset.ObjectKey, err)
	}
	if err := s.DB.Delete(&asset).Error; err != nil {
		log.Printf("DB Error deleting branding asset: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete branding asset"})
	}

	return c.JSON(fiber.Map{"message": "Branding asset deleted successfully"})
}
