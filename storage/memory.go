package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datahex-administration/ConnectionQuest/models"
)

type memoryAnswer struct {
	optionID  string
	createdAt time.Time
}

// MemoryStore is the in-memory Store and Catalog implementation used by the
// engine tests. A single mutex guards every map, which also makes it honest
// enough for concurrency tests: an operation either sees a write fully or
// not at all.
type MemoryStore struct {
	mu sync.Mutex

	sessions     map[string]models.QuizSession // by session ID
	codes        map[string]string             // code -> session ID
	members      map[string][]string           // session ID -> participant IDs, join order
	participants map[string]models.Participant
	// session ID -> participant ID -> question ID
	answers   map[string]map[string]map[string]memoryAnswer
	questions []models.Question
	templates []models.CouponTemplate
	vouchers  map[string]models.Voucher // by session ID
	voucherID map[string]string         // voucher ID -> session ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]models.QuizSession),
		codes:        make(map[string]string),
		members:      make(map[string][]string),
		participants: make(map[string]models.Participant),
		answers:      make(map[string]map[string]map[string]memoryAnswer),
		vouchers:     make(map[string]models.Voucher),
		voucherID:    make(map[string]string),
	}
}

// SeedParticipant registers a participant the engine can then resolve as a
// session member.
func (s *MemoryStore) SeedParticipant(p models.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
}

// SeedQuestion appends a catalog question (options included).
func (s *MemoryStore) SeedQuestion(q models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, q)
}

// SeedTemplate appends a coupon template.
func (s *MemoryStore) SeedTemplate(t models.CouponTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, t)
}

func (s *MemoryStore) CreateSession(session *models.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[session.Code]; taken {
		return ErrDuplicateCode
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	s.sessions[session.ID] = *session
	s.codes[session.Code] = session.ID
	return nil
}

func (s *MemoryStore) GetSessionByCode(code string) (models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[code]
	if !ok {
		return models.QuizSession{}, ErrNotFound
	}
	return s.sessions[id], nil
}

func (s *MemoryStore) AddMember(sessionID, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	current := s.members[sessionID]
	for _, pid := range current {
		if pid == participantID {
			return nil
		}
	}
	if len(current) >= models.SessionCapacity {
		return ErrSessionFull
	}
	s.members[sessionID] = append(current, participantID)
	return nil
}

func (s *MemoryStore) GetMembers(sessionID string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Participant
	for _, pid := range s.members[sessionID] {
		if p, ok := s.participants[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetParticipant(participantID string) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return models.Participant{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SaveAnswer(sessionID, participantID, questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byParticipant, ok := s.answers[sessionID]
	if !ok {
		byParticipant = make(map[string]map[string]memoryAnswer)
		s.answers[sessionID] = byParticipant
	}
	byQuestion, ok := byParticipant[participantID]
	if !ok {
		byQuestion = make(map[string]memoryAnswer)
		byParticipant[participantID] = byQuestion
	}
	byQuestion[questionID] = memoryAnswer{optionID: optionID, createdAt: time.Now()}
	return nil
}

func (s *MemoryStore) GetAnswersForSession(sessionID string) ([]models.SessionAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SessionAnswer
	for pid, byQuestion := range s.answers[sessionID] {
		for qid, ans := range byQuestion {
			row := models.SessionAnswer{
				ParticipantID: pid,
				QuestionID:    qid,
				OptionID:      ans.optionID,
				CreatedAt:     ans.createdAt,
			}
			if q, opt, ok := s.lookupOption(qid, ans.optionID); ok {
				row.QuestionText = q.Text
				row.QuestionCategory = q.Category
				row.OptionText = opt.Text
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// lookupOption resolves question and option text; callers hold the lock.
func (s *MemoryStore) lookupOption(questionID, optionID string) (models.Question, models.QuestionOption, bool) {
	for _, q := range s.questions {
		if q.ID != questionID {
			continue
		}
		for _, opt := range q.Options {
			if opt.ID == optionID {
				return q, opt, true
			}
		}
		return q, models.QuestionOption{}, true
	}
	return models.Question{}, models.QuestionOption{}, false
}

func (s *MemoryStore) HasAnswered(sessionID, participantID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers[sessionID][participantID]) > 0, nil
}

func (s *MemoryStore) MarkConcluded(sessionID string, percentage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	pct := percentage
	session.Concluded = true
	session.MatchPercentage = &pct
	s.sessions[sessionID] = session
	return nil
}

func (s *MemoryStore) GetVoucherBySession(sessionID string) (models.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voucher, ok := s.vouchers[sessionID]
	if !ok {
		return models.Voucher{}, ErrNotFound
	}
	return voucher, nil
}

func (s *MemoryStore) CreateVoucher(voucher *models.Voucher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vouchers[voucher.SessionID]; exists {
		return ErrDuplicateVoucher
	}
	s.vouchers[voucher.SessionID] = *voucher
	s.voucherID[voucher.ID] = voucher.SessionID
	return nil
}

func (s *MemoryStore) MarkVoucherDownloaded(voucherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID, ok := s.voucherID[voucherID]
	if !ok {
		return ErrNotFound
	}
	voucher := s.vouchers[sessionID]
	voucher.Downloaded = true
	s.vouchers[sessionID] = voucher
	return nil
}

func (s *MemoryStore) GetActiveCouponTemplates() ([]models.CouponTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CouponTemplate
	for _, t := range s.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) Questions(category models.QuestionCategory) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category == "" {
		return append([]models.Question(nil), s.questions...), nil
	}
	var out []models.Question
	for _, q := range s.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}
