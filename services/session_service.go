// services/session_service.go
package services

import (
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/datahex-administration/ConnectionQuest/metrics"
	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
	"github.com/datahex-administration/ConnectionQuest/utils"
)

// SessionCodeLength is the length of the join code printed on invites.
const SessionCodeLength = 6

// maxCodeAttempts bounds how often Create retries after a code collision.
const maxCodeAttempts = 5

// SessionService creates quiz sessions and manages who sits in them.
type SessionService struct {
	Store   storage.Store
	Catalog storage.Catalog

	codeGen func() string
}

func NewSessionService(store storage.Store, catalog storage.Catalog) *SessionService {
	return &SessionService{
		Store:   store,
		Catalog: catalog,
		codeGen: func() string { return utils.RandomCode(SessionCodeLength) },
	}
}

// Create mints a session with a fresh join code. Collisions are retried a
// bounded number of times before giving up with ErrCodeSpaceExhausted.
func (s *SessionService) Create() (models.QuizSession, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.codeGen()
		if code == "" {
			continue
		}
		session := models.QuizSession{
			ID:   uuid.NewString(),
			Code: code,
		}
		err := s.Store.CreateSession(&session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, storage.ErrDuplicateCode) {
			return models.QuizSession{}, err
		}
		log.Printf("⚠️ Session code %s already taken, retrying (%d/%d)", code, attempt, maxCodeAttempts)
	}
	return models.QuizSession{}, ErrCodeSpaceExhausted
}

// Join adds a participant to the session behind the code. Joining a session
// you are already in is a no-op and returns the current member list.
func (s *SessionService) Join(code, participantID string) (models.QuizSession, []models.Participant, error) {
	session, err := resolveSession(s.Store, code)
	if err != nil {
		return models.QuizSession{}, nil, err
	}
	if _, err := s.Store.GetParticipant(participantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.QuizSession{}, nil, ErrParticipantNotFound
		}
		return models.QuizSession{}, nil, err
	}
	if err := s.Store.AddMember(session.ID, participantID); err != nil {
		switch {
		case errors.Is(err, storage.ErrSessionFull):
			return models.QuizSession{}, nil, ErrSessionFull
		case errors.Is(err, storage.ErrNotFound):
			return models.QuizSession{}, nil, ErrSessionNotFound
		}
		return models.QuizSession{}, nil, err
	}
	members, err := s.Store.GetMembers(session.ID)
	if err != nil {
		return models.QuizSession{}, nil, err
	}
	return session, sortParticipants(members), nil
}

// MemberStatus is one row of the session lobby view.
type MemberStatus struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Submitted     bool   `json:"submitted"`
}

// SessionStatus is what the lobby polls while waiting for the partner.
type SessionStatus struct {
	SessionID       string         `json:"session_id"`
	Code            string         `json:"code"`
	Capacity        int            `json:"capacity"`
	MemberCount     int            `json:"member_count"`
	Members         []MemberStatus `json:"members"`
	Concluded       bool           `json:"concluded"`
	MatchPercentage *int           `json:"match_percentage,omitempty"`
}

// Status reports the current lobby state of a session.
func (s *SessionService) Status(code string) (SessionStatus, error) {
	session, err := resolveSession(s.Store, code)
	if err != nil {
		return SessionStatus{}, err
	}
	members, err := s.Store.GetMembers(session.ID)
	if err != nil {
		return SessionStatus{}, err
	}
	members = sortParticipants(members)

	status := SessionStatus{
		SessionID:       session.ID,
		Code:            session.Code,
		Capacity:        models.SessionCapacity,
		MemberCount:     len(members),
		Members:         make([]MemberStatus, 0, len(members)),
		Concluded:       session.Concluded,
		MatchPercentage: session.MatchPercentage,
	}
	for _, m := range members {
		submitted, err := s.Store.HasAnswered(session.ID, m.ID)
		if err != nil {
			return SessionStatus{}, err
		}
		status.Members = append(status.Members, MemberStatus{
			ParticipantID: m.ID,
			Name:          m.Name,
			Submitted:     submitted,
		})
	}
	return status, nil
}

// --- Handlers ---

// CreateSession handles POST /sessions
func (s *SessionService) CreateSession(c *fiber.Ctx) error {
	session, err := s.Create()
	if err != nil {
		log.Printf("❌ Failed to create session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	metrics.SessionsCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": session.ID,
		"code":       session.Code,
		"capacity":   models.SessionCapacity,
	})
}

// JoinSession handles POST /sessions/:code/join
func (s *SessionService) JoinSession(c *fiber.Ctx) error {
	code := c.Params("code")

	var req struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	participantID := req.ParticipantID
	if participantID == "" {
		participantID, _ = c.Locals("participant_id").(string)
	}
	if participantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participant_id is required"})
	}

	session, members, err := s.Join(code, participantID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		case errors.Is(err, ErrParticipantNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Participant not found"})
		case errors.Is(err, ErrSessionFull):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session is full"})
		}
		log.Printf("❌ Failed to join session %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join session"})
	}

	metrics.SessionJoins.Inc()
	memberList := make([]fiber.Map, 0, len(members))
	for _, m := range members {
		memberList = append(memberList, fiber.Map{"participant_id": m.ID, "name": m.Name})
	}
	return c.JSON(fiber.Map{
		"session_id":   session.ID,
		"code":         session.Code,
		"member_count": len(members),
		"members":      memberList,
	})
}

// GetSessionStatus handles GET /sessions/:code/status
func (s *SessionService) GetSessionStatus(c *fiber.Ctx) error {
	status, err := s.Status(c.Params("code"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		log.Printf("❌ Failed to load status for session %s: %v", c.Params("code"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load session status"})
	}
	return c.JSON(status)
}

// GetSessionQuestions handles GET /sessions/:code/questions
func (s *SessionService) GetSessionQuestions(c *fiber.Ctx) error {
	if _, err := resolveSession(s.Store, c.Params("code")); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		log.Printf("❌ Failed to resolve session %s: %v", c.Params("code"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	category := models.QuestionCategory(c.Query("category", string(models.QuestionCategoryCommon)))
	if category != models.QuestionCategoryCommon && category != models.QuestionCategoryIndividual {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category"})
	}

	questions, err := s.Catalog.Questions(category)
	if err != nil {
		log.Printf("❌ Failed to load questions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load questions"})
	}

	list := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		options := make([]fiber.Map, 0, len(q.Options))
		for _, opt := range q.Options {
			options = append(options, fiber.Map{
				"id":       opt.ID,
				"text":     opt.Text,
				"position": opt.Position,
			})
		}
		list = append(list, fiber.Map{
			"id":       q.ID,
			"text":     q.Text,
			"category": q.Category,
			"position": q.Position,
			"options":  options,
		})
	}
	return c.JSON(fiber.Map{"questions": list, "count": len(list)})
}

// --- Shared helpers ---

// normalizeCode uppercases and trims a user-supplied join code so codes are
// case-insensitive on the wire.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// resolveSession looks a session up by join code.
func resolveSession(store storage.Store, code string) (models.QuizSession, error) {
	session, err := store.GetSessionByCode(normalizeCode(code))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.QuizSession{}, ErrSessionNotFound
		}
		return models.QuizSession{}, err
	}
	return session, nil
}

// sortParticipants orders members deterministically, lowest ID first. The
// first member of the sorted pair is the reference perspective in results.
func sortParticipants(members []models.Participant) []models.Participant {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

func isMember(members []models.Participant, participantID string) bool {
	for _, m := range members {
		if m.ID == participantID {
			return true
		}
	}
	return false
}
