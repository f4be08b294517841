package storage

import (
	"errors"

	"github.com/datahex-administration/ConnectionQuest/models"
)

// Sentinel errors shared by every backend so the engine services can react
// to the same conditions regardless of where the data lives.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateCode    = errors.New("session code already exists")
	ErrSessionFull      = errors.New("session already has the maximum number of members")
	ErrDuplicateVoucher = errors.New("voucher already exists for session")
)

// Store is the persistence contract the quiz engine runs on.
//
// AddMember is idempotent for a participant who is already a member and
// returns ErrSessionFull when a new participant would exceed the capacity;
// both checks happen atomically with the insert. SaveAnswer upserts by
// (session, participant, question). CreateVoucher returns
// ErrDuplicateVoucher when the session already holds one.
type Store interface {
	CreateSession(session *models.QuizSession) error
	GetSessionByCode(code string) (models.QuizSession, error)
	AddMember(sessionID, participantID string) error
	GetMembers(sessionID string) ([]models.Participant, error)
	GetParticipant(participantID string) (models.Participant, error)

	SaveAnswer(sessionID, participantID, questionID, optionID string) error
	GetAnswersForSession(sessionID string) ([]models.SessionAnswer, error)
	HasAnswered(sessionID, participantID string) (bool, error)

	MarkConcluded(sessionID string, percentage int) error

	GetVoucherBySession(sessionID string) (models.Voucher, error)
	CreateVoucher(voucher *models.Voucher) error
	MarkVoucherDownloaded(voucherID string) error
	GetActiveCouponTemplates() ([]models.CouponTemplate, error)
}

// Catalog is the question catalog read contract. An empty category returns
// the whole catalog; options come back ordered.
type Catalog interface {
	Questions(category models.QuestionCategory) ([]models.Question, error)
}
