// services/overview_service.go
package services

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datahex-administration/ConnectionQuest/models"
)

// OverviewService backs the admin dashboard: session listings and totals.
type OverviewService struct {
	DB *gorm.DB
}

func NewOverviewService(db *gorm.DB) *OverviewService {
	return &OverviewService{DB: db}
}

// GetSessionsOverview lists recent sessions with member counts (Admin only)
func (s *OverviewService) GetSessionsOverview(c *fiber.Ctx) error {
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	type sessionRow struct {
		ID              string    `json:"id"`
		Code            string    `json:"code"`
		MemberCount     int       `json:"member_count"`
		Concluded       bool      `json:"concluded"`
		MatchPercentage *int      `json:"match_percentage"`
		CreatedAt       time.Time `json:"created_at"`
	}

	query := s.DB.Table("quiz_sessions").
		Select(`quiz_sessions.id, quiz_sessions.code,
			COUNT(session_members.id) AS member_count,
			quiz_sessions.concluded, quiz_sessions.match_percentage,
			quiz_sessions.created_at`).
		Joins("LEFT JOIN session_members ON session_members.session_id = quiz_sessions.id").
		Where("quiz_sessions.deleted_at IS NULL").
		Group("quiz_sessions.id").
		Order("quiz_sessions.created_at DESC").
		Limit(limit)

	switch strings.ToLower(c.Query("concluded")) {
	case "true":
		query = query.Where("quiz_sessions.concluded = ?", true)
	case "false":
		query = query.Where("quiz_sessions.concluded = ?", false)
	}

	var sessions []sessionRow
	if err := query.Scan(&sessions).Error; err != nil {
		log.Printf("DB Error fetching sessions overview: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}

	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}

// GetDashboardStats returns the totals the admin dashboard polls (Admin only)
func (s *OverviewService) GetDashboardStats(c *fiber.Ctx) error {
	var totalSessions int64
	if err := s.DB.Model(&models.QuizSession{}).Count(&totalSessions).Error; err != nil {
		log.Printf("DB Error counting sessions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting sessions"})
	}

	var concludedSessions int64
	if err := s.DB.Model(&models.QuizSession{}).
		Where("concluded = ?", true).
		Count(&concludedSessions).Error; err != nil {
		log.Printf("DB Error counting concluded sessions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting concluded sessions"})
	}

	var totalParticipants int64
	if err := s.DB.Model(&models.Participant{}).Count(&totalParticipants).Error; err != nil {
		log.Printf("DB Error counting participants: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting participants"})
	}

	var totalVouchers int64
	if err := s.DB.Model(&models.Voucher{}).Count(&totalVouchers).Error; err != nil {
		log.Printf("DB Error counting vouchers: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting vouchers"})
	}

	var downloadedVouchers int64
	if err := s.DB.Model(&models.Voucher{}).
		Where("downloaded = ?", true).
		Count(&downloadedVouchers).Error; err != nil {
		log.Printf("DB Error counting downloaded vouchers: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting downloaded vouchers"})
	}

	return c.JSON(fiber.Map{
		"total_sessions":      totalSessions,
		"concluded_sessions":  concludedSessions,
		"total_participants":  totalParticipants,
		"total_vouchers":      totalVouchers,
		"downloaded_vouchers": downloadedVouchers,
	})
}
