// services/question_service.go
package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/datahex-administration/ConnectionQuest/models"
)

// QuestionService is the admin CRUD surface for the question catalog.
// Deleting a question soft-deletes it: already recorded answers keep
// resolving its text, it just stops being served to new sessions.
type QuestionService struct {
	DB *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{DB: db}
}

func validCategory(category models.QuestionCategory) bool {
	return category == models.QuestionCategoryCommon || category == models.QuestionCategoryIndividual
}

// CreateQuestion creates a question, optionally with its options inline (Admin only)
func (s *QuestionService) CreateQuestion(c *fiber.Ctx) error {
	var req struct {
		Text     string                  `json:"text" validate:"required"`
		Category models.QuestionCategory `json:"category" validate:"omitempty,oneof=common individual"`
		Position int                     `json:"position"`
		Options  []struct {
			Text     string `json:"text"`
			Position int    `json:"position"`
		} `json:"options"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Question text is required"})
	}
	if req.Category == "" {
		req.Category = models.QuestionCategoryCommon
	}
	if !validCategory(req.Category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category"})
	}

	question := models.Question{
		Text:     req.Text,
		Category: req.Category,
		Position: req.Position,
	}
	for _, opt := range req.Options {
		if opt.Text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Option text is required"})
		}
		question.Options = append(question.Options, models.QuestionOption{
			Text:     opt.Text,
			Position: opt.Position,
		})
	}

	if err := s.DB.Create(&question).Error; err != nil {
		log.Printf("DB Error creating question: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create question"})
	}

	return c.Status(fiber.StatusCreated).JSON(question)
}

// GetAllQuestions lists the catalog with ordered options (Admin only)
func (s *QuestionService) GetAllQuestions(c *fiber.Ctx) error {
	query := s.DB.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("position ASC")

	if category := c.Query("category"); category != "" {
		if !validCategory(models.QuestionCategory(category)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category"})
		}
		query = query.Where("category = ?", category)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		log.Printf("DB Error fetching questions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch questions"})
	}

	return c.JSON(questions)
}

// UpdateQuestion updates an existing question (Admin only)
func (s *QuestionService) UpdateQuestion(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question ID"})
	}

	var existing models.Question
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Text     *string                  `json:"text"`
		Category *models.QuestionCategory `json:"category"`
		Position *int                     `json:"position"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Text != nil {
		existing.Text = *req.Text
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category"})
		}
		existing.Category = *req.Category
	}
	if req.Position != nil {
		existing.Position = *req.Position
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating question: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update question"})
	}

	return c.JSON(existing)
}

// DeleteQuestion soft-deletes a question (Admin only)
func (s *QuestionService) DeleteQuestion(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question ID"})
	}

	var question models.Question
	if err := s.DB.First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&question).Error; err != nil {
		log.Printf("DB Error deleting question: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete question"})
	}

	return c.JSON(fiber.Map{"message": "Question deleted successfully"})
}

// AddQuestionOption appends an option to a question (Admin only)
func (s *QuestionService) AddQuestionOption(c *fiber.Ctx) error {
	questionID := c.Params("id")
	if _, err := uuid.Parse(questionID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question ID"})
	}

	var question models.Question
	if err := s.DB.First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Text     string `json:"text" validate:"required"`
		Position int    `json:"position"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Option text is required"})
	}

	option := models.QuestionOption{
		QuestionID: question.ID,
		Text:       req.Text,
		Position:   req.Position,
	}
	if err := s.DB.Create(&option).Error; err != nil {
		log.Printf("DB Error creating option: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create option"})
	}

	return c.Status(fiber.StatusCreated).JSON(option)
}

// UpdateQuestionOption updates an option (Admin only)
func (s *QuestionService) UpdateQuestionOption(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid option ID"})
	}

	var existing models.QuestionOption
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Option not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Text     *string `json:"text"`
		Position *int    `json:"position"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Text != nil {
		existing.Text = *req.Text
	}
	if req.Position != nil {
		existing.Position = *req.Position
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating option: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update option"})
	}

	return c.JSON(existing)
}

// DeleteQuestionOption removes an option (Admin only)
func (s *QuestionService) DeleteQuestionOption(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid option ID"})
	}

	var option models.QuestionOption
	if err := s.DB.First(&option, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Option not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&option).Error; err != nil {
		log.Printf("DB Error deleting option: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete option"})
	}

	return c.JSON(fiber.Map{"message": "Option deleted successfully"})
}
