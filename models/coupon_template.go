package models

import "time"

// DiscountType indicates whether the template grants a percentage or a
// fixed-amount discount
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// CouponTemplate is an admin-managed reward policy. The reward issuer
// picks, among active templates whose threshold the computed match
// percentage reaches, the one with the highest threshold.
type CouponTemplate struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name string `json:"name" gorm:"not null"`

	DiscountType  DiscountType `json:"discount_type" gorm:"type:varchar(16);not null;default:'percentage'"`
	DiscountValue int          `json:"discount_value" gorm:"not null"`
	Currency      string       `json:"currency,omitempty" gorm:"size:3"` // ISO 4217, fixed type only

	ValidityDays       int  `json:"validity_days" gorm:"default:90"`
	MinMatchPercentage int  `json:"min_match_percentage" gorm:"not null;default:0"`
	IsActive           bool `json:"is_active" gorm:"default:false;index"`

	// Optional campaign window, applied by the scheduler.
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	Timestamps
}
