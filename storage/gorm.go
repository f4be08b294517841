package storage

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datahex-administration/ConnectionQuest/models"
)

// GormStore is the Postgres-backed Store and Catalog implementation.
// It expects the *gorm.DB to be opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateSession(session *models.QuizSession) error {
	if err := s.db.Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (s *GormStore) GetSessionByCode(code string) (models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.First(&session, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuizSession{}, ErrNotFound
		}
		return models.QuizSession{}, err
	}
	return session, nil
}

// AddMember inserts a membership row under a session row lock so two
// racing joins cannot push a session past its capacity.
func (s *GormStore) AddMember(sessionID, participantID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.QuizSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.SessionMember{}).
			Where("session_id = ? AND participant_id = ?", sessionID, participantID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&models.SessionMember{}).
			Where("session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return err
		}
		if int(count) >= models.SessionCapacity {
			return ErrSessionFull
		}

		member := models.SessionMember{
			ID:            uuid.NewString(),
			SessionID:     sessionID,
			ParticipantID: participantID,
		}
		return tx.Create(&member).Error
	})
}

func (s *GormStore) GetMembers(sessionID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.db.
		Joins("JOIN session_members ON session_members.participant_id = participants.id").
		Where("session_members.session_id = ?", sessionID).
		Find(&participants).Error
	return participants, err
}

func (s *GormStore) GetParticipant(participantID string) (models.Participant, error) {
	var participant models.Participant
	if err := s.db.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Participant{}, ErrNotFound
		}
		return models.Participant{}, err
	}
	return participant, nil
}

func (s *GormStore) SaveAnswer(sessionID, participantID, questionID, optionID string) error {
	answer := models.Answer{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		ParticipantID: participantID,
		QuestionID:    questionID,
		OptionID:      optionID,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "session_id"}, {Name: "participant_id"}, {Name: "question_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"option_id", "created_at"}),
	}).Create(&answer).Error
}

// GetAnswersForSession goes through Table() on purpose: answers must keep
// joining questions that were soft-deleted from the catalog after the
// session played, so the default soft-delete scope must not apply. LEFT
// JOINs keep the rows even when an option was removed outright.
func (s *GormStore) GetAnswersForSession(sessionID string) ([]models.SessionAnswer, error) {
	var rows []models.SessionAnswer
	err := s.db.Table("answers").
		Select(`answers.participant_id,
			answers.question_id,
			questions.text AS question_text,
			questions.category AS question_category,
			answers.option_id,
			question_options.text AS option_text,
			answers.created_at`).
		Joins("LEFT JOIN questions ON questions.id = answers.question_id").
		Joins("LEFT JOIN question_options ON question_options.id = answers.option_id").
		Where("answers.session_id = ?", sessionID).
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) HasAnswered(sessionID, participantID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Answer{}).
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) MarkConcluded(sessionID string, percentage int) error {
	result := s.db.Model(&models.QuizSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"concluded":        true,
			"match_percentage": percentage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetVoucherBySession(sessionID string) (models.Voucher, error) {
	var voucher models.Voucher
	if err := s.db.First(&voucher, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Voucher{}, ErrNotFound
		}
		return models.Voucher{}, err
	}
	return voucher, nil
}

func (s *GormStore) CreateVoucher(voucher *models.Voucher) error {
	if err := s.db.Create(voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateVoucher
		}
		return err
	}
	return nil
}

func (s *GormStore) MarkVoucherDownloaded(voucherID string) error {
	result := s.db.Model(&models.Voucher{}).
		Where("id = ?", voucherID).
		Update("downloaded", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetActiveCouponTemplates() ([]models.CouponTemplate, error) {
	var templates []models.CouponTemplate
	err := s.db.Where("is_active = ?", true).Find(&templates).Error
	return templates, err
}

func (s *GormStore) Questions(category models.QuestionCategory) ([]models.Question, error) {
	var questions []models.Question
	query := s.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("position ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Find(&questions).Error
	return questions, err
}
