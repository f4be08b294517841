package models

import "time"

const (
	BrandingSlotLogo         = "logo"
	BrandingSlotBackground   = "background"
	BrandingSlotResultBanner = "result_banner"
)

// BrandingAsset is one uploaded customization image per slot. Re-uploading
// a slot replaces the row, so no soft delete: a tombstone would keep
// occupying the unique slot index.
type BrandingAsset struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Slot      string `json:"slot" gorm:"uniqueIndex;not null;size:32"`
	FileURL   string `json:"file_url" gorm:"not null"`
	ObjectKey string `json:"object_key" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
