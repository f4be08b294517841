// services/answer_service.go
package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/datahex-administration/ConnectionQuest/metrics"
	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
)

// AnswerService records answer sheets and answers the "who has submitted"
// questions the lobby and the results gate ask.
type AnswerService struct {
	Store   storage.Store
	Catalog storage.Catalog
}

func NewAnswerService(store storage.Store, catalog storage.Catalog) *AnswerService {
	return &AnswerService{Store: store, Catalog: catalog}
}

// AnswerSubmission is one picked option in a submitted sheet.
type AnswerSubmission struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
}

// Submit validates the whole sheet against the catalog and persists it.
// A sheet that references an unknown question or a foreign option is
// rejected as a unit. Re-submitting a question replaces the stored answer;
// within one sheet the last entry for a question wins.
func (s *AnswerService) Submit(code, participantID string, answers []AnswerSubmission) error {
	session, err := resolveSession(s.Store, code)
	if err != nil {
		return err
	}
	if session.Concluded {
		return ErrSessionConcluded
	}

	members, err := s.Store.GetMembers(session.ID)
	if err != nil {
		return err
	}
	if !isMember(members, participantID) {
		return ErrNotMember
	}

	if len(answers) == 0 {
		return &ValidationError{Field: "answers", Reason: "at least one answer is required"}
	}

	questions, err := s.Catalog.Questions("")
	if err != nil {
		return err
	}
	options := make(map[string]map[string]struct{}, len(questions))
	for _, q := range questions {
		opts := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			opts[opt.ID] = struct{}{}
		}
		options[q.ID] = opts
	}
	for _, a := range answers {
		opts, ok := options[a.QuestionID]
		if !ok {
			return &ValidationError{Field: "question_id", Reason: fmt.Sprintf("unknown question %s", a.QuestionID)}
		}
		if _, ok := opts[a.OptionID]; !ok {
			return &ValidationError{Field: "option_id", Reason: fmt.Sprintf("option %s does not belong to question %s", a.OptionID, a.QuestionID)}
		}
	}

	for _, a := range answers {
		if err := s.Store.SaveAnswer(session.ID, participantID, a.QuestionID, a.OptionID); err != nil {
			return err
		}
	}
	return nil
}

// HasSubmitted reports whether the participant has any answers recorded in
// the session.
func (s *AnswerService) HasSubmitted(code, participantID string) (bool, error) {
	session, err := resolveSession(s.Store, code)
	if err != nil {
		return false, err
	}
	return s.Store.HasAnswered(session.ID, participantID)
}

// AllSubmitted reports whether the session is full and every member has
// answered at least the whole catalog. This is the readiness gate the
// results endpoint checks.
func (s *AnswerService) AllSubmitted(code string) (bool, error) {
	session, err := resolveSession(s.Store, code)
	if err != nil {
		return false, err
	}
	members, err := s.Store.GetMembers(session.ID)
	if err != nil {
		return false, err
	}
	if len(members) < models.SessionCapacity {
		return false, nil
	}
	questions, err := s.Catalog.Questions("")
	if err != nil {
		return false, err
	}
	answers, err := s.Store.GetAnswersForSession(session.ID)
	if err != nil {
		return false, err
	}
	counts := answeredCounts(answers)
	for _, m := range members {
		if counts[m.ID] < len(questions) {
			return false, nil
		}
	}
	return true, nil
}

// --- Handlers ---

// SubmitAnswers handles POST /sessions/:code/answers
func (s *AnswerService) SubmitAnswers(c *fiber.Ctx) error {
	code := c.Params("code")

	var req struct {
		ParticipantID string             `json:"participant_id"`
		Answers       []AnswerSubmission `json:"answers"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	participantID := req.ParticipantID
	if participantID == "" {
		participantID, _ = c.Locals("participant_id").(string)
	}
	if participantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participant_id is required"})
	}

	if err := s.Submit(code, participantID, req.Answers); err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error()})
		case errors.Is(err, ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		case errors.Is(err, ErrNotMember):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Participant is not a member of this session"})
		case errors.Is(err, ErrSessionConcluded):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session already concluded"})
		}
		log.Printf("❌ Failed to save answers for session %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save answers"})
	}

	metrics.AnswersSubmitted.Add(float64(len(req.Answers)))

	allSubmitted, err := s.AllSubmitted(code)
	if err != nil {
		log.Printf("⚠️ Could not check submission state for session %s: %v", code, err)
	}
	return c.JSON(fiber.Map{
		"message":       "Answers recorded",
		"answer_count":  len(req.Answers),
		"all_submitted": allSubmitted,
	})
}
