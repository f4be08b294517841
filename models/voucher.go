package models

import "time"

// Voucher is the discount reward minted for a concluded session. The
// unique index on SessionID is the backstop that keeps voucher issuing
// idempotent even when two result polls race.
type Voucher struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"uniqueIndex;not null"`
	Code      string `json:"code" gorm:"index;not null"`

	RewardName   string    `json:"reward_name" gorm:"not null"`
	DiscountText string    `json:"discount_text" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at"`

	Downloaded bool `json:"downloaded" gorm:"default:false"`

	// Stamped by the CRM export worker once the voucher has been pushed out.
	ExportedAt *time.Time `json:"exported_at,omitempty" gorm:"index"`

	Timestamps
}
