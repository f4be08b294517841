// services/reward_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/datahex-administration/ConnectionQuest/metrics"
	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
	"github.com/datahex-administration/ConnectionQuest/utils"
)

// voucherCodeLength is the random tail after the reward prefix,
// e.g. MATCH-7Q2F91KD.
const voucherCodeLength = 8

// defaultValidityDays is used when a template carries no validity.
const defaultValidityDays = 90

// RewardService mints the one voucher a session can earn and tracks its
// download state.
type RewardService struct {
	Store storage.Store

	now     func() time.Time
	codeGen func(length int) string
}

func NewRewardService(store storage.Store) *RewardService {
	return &RewardService{
		Store:   store,
		now:     time.Now,
		codeGen: utils.RandomCode,
	}
}

// Ensure returns the session's voucher, minting it on the first call.
// Calling it again, or concurrently, always yields the same voucher.
func (s *RewardService) Ensure(sessionID string, percentage int) (models.Voucher, error) {
	voucher, err := s.Store.GetVoucherBySession(sessionID)
	if err == nil {
		return voucher, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Voucher{}, err
	}
	return s.mint(sessionID, percentage)
}

func (s *RewardService) mint(sessionID string, percentage int) (models.Voucher, error) {
	template, err := s.pickTemplate(percentage)
	if err != nil {
		return models.Voucher{}, err
	}

	var name, discount string
	validityDays := defaultValidityDays
	if template != nil {
		name = template.Name
		discount = discountText(*template)
		if template.ValidityDays > 0 {
			validityDays = template.ValidityDays
		}
	} else {
		name, discount = fallbackReward(percentage)
	}

	voucher := models.Voucher{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Code:         fmt.Sprintf("%s-%s", utils.SanitizeCodePrefix(name), s.codeGen(voucherCodeLength)),
		RewardName:   name,
		DiscountText: discount,
		ExpiresAt:    s.now().AddDate(0, 0, validityDays),
	}
	if err := s.Store.CreateVoucher(&voucher); err != nil {
		if errors.Is(err, storage.ErrDuplicateVoucher) {
			log.Printf("⚠️ Voucher already minted for session %s, returning existing", sessionID)
			return s.Store.GetVoucherBySession(sessionID)
		}
		return models.Voucher{}, err
	}

	metrics.VouchersIssued.WithLabelValues(voucher.RewardName).Inc()
	log.Printf("🎟️ Minted voucher %s (%s) for session %s", voucher.Code, voucher.RewardName, sessionID)
	return voucher, nil
}

// pickTemplate returns the running campaign template with the highest
// threshold the percentage clears, or nil when no campaign applies.
func (s *RewardService) pickTemplate(percentage int) (*models.CouponTemplate, error) {
	templates, err := s.Store.GetActiveCouponTemplates()
	if err != nil {
		return nil, err
	}
	now := s.now()
	var best *models.CouponTemplate
	for i := range templates {
		t := &templates[i]
		if t.MinMatchPercentage > percentage {
			continue
		}
		if t.StartsAt != nil && now.Before(*t.StartsAt) {
			continue
		}
		if t.EndsAt != nil && now.After(*t.EndsAt) {
			continue
		}
		if best == nil || t.MinMatchPercentage > best.MinMatchPercentage ||
			(t.MinMatchPercentage == best.MinMatchPercentage && t.ID < best.ID) {
			best = t
		}
	}
	return best, nil
}

// Download marks a voucher as downloaded. Downloading twice is fine.
func (s *RewardService) Download(voucherID string) error {
	if err := s.Store.MarkVoucherDownloaded(voucherID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrVoucherNotFound
		}
		return err
	}
	return nil
}

// discountText renders a template's discount for the voucher face.
func discountText(t models.CouponTemplate) string {
	if t.DiscountType == models.DiscountTypeFixed {
		return fixedDiscountText(t.Currency, t.DiscountValue)
	}
	return fmt.Sprintf("%d%% OFF", t.DiscountValue)
}

// fixedDiscountText formats a fixed amount with its currency symbol,
// e.g. "€ 15 OFF". Unknown currency codes fall back to the raw code.
func fixedDiscountText(code string, value int) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%d %s OFF", value, strings.ToUpper(code))
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v OFF", currency.Symbol(unit.Amount(value)))
}

// fallbackReward is the built-in tier ladder used when no campaign
// template is running.
func fallbackReward(percentage int) (name, discount string) {
	switch {
	case percentage >= 80:
		return "Perfect Match", "30% OFF"
	case percentage >= 60:
		return "Great Match", "20% OFF"
	default:
		return "Good Match", "10% OFF"
	}
}

// --- Handlers ---

// DownloadVoucher handles POST /vouchers/:id/download
func (s *RewardService) DownloadVoucher(c *fiber.Ctx) error {
	voucherID := c.Params("id")
	if _, err := uuid.Parse(voucherID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid voucher ID"})
	}

	if err := s.Download(voucherID); err != nil {
		if errors.Is(err, ErrVoucherNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Voucher not found"})
		}
		log.Printf("❌ Failed to mark voucher %s as downloaded: %v", voucherID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark voucher as downloaded"})
	}

	return c.JSON(fiber.Map{"message": "OK", "voucher_id": voucherID, "downloaded": true})
}
