// services/match_service.go
package services

import (
	"errors"
	"log"
	"math"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/datahex-administration/ConnectionQuest/metrics"
	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
)

// MatchService scores a finished session and concludes it. Scoring covers
// every question both members answered; two answers match when the option
// text is identical.
type MatchService struct {
	Store   storage.Store
	Catalog storage.Catalog
	Rewards *RewardService

	// MinRewardPercentage is the lowest match percentage that earns a
	// voucher. Sessions below it conclude without one.
	MinRewardPercentage int
}

func NewMatchService(store storage.Store, catalog storage.Catalog, rewards *RewardService, minRewardPercentage int) *MatchService {
	return &MatchService{
		Store:               store,
		Catalog:             catalog,
		Rewards:             rewards,
		MinRewardPercentage: minRewardPercentage,
	}
}

// MatchingAnswer is a question both members answered the same way.
type MatchingAnswer struct {
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
}

// NonMatchingAnswer is a question both answered, differently. "Your" side
// is the reference participant, the session pair sorted lowest ID first.
type NonMatchingAnswer struct {
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	YourAnswer    string `json:"your_answer"`
	PartnerAnswer string `json:"partner_answer"`
}

// MatchResult is the final scorecard of a session.
type MatchResult struct {
	SessionID              string              `json:"session_id"`
	ReferenceParticipantID string              `json:"reference_participant_id"`
	Percentage             int                 `json:"match_percentage"`
	Matching               []MatchingAnswer    `json:"matching"`
	NonMatching            []NonMatchingAnswer `json:"non_matching"`
}

// Results returns the session scorecard, concluding the session the first
// time it is called on a ready session. Later calls return the same
// percentage; the stored value is authoritative once concluded. A session
// earns its voucher here, once, when the percentage clears the reward gate.
func (s *MatchService) Results(code string) (MatchResult, *models.Voucher, error) {
	session, err := resolveSession(s.Store, code)
	if err != nil {
		return MatchResult{}, nil, err
	}

	members, err := s.Store.GetMembers(session.ID)
	if err != nil {
		return MatchResult{}, nil, err
	}
	if len(members) < models.SessionCapacity {
		return MatchResult{}, nil, ErrNotReady
	}
	members = sortParticipants(members)

	answers, err := s.Store.GetAnswersForSession(session.ID)
	if err != nil {
		return MatchResult{}, nil, err
	}

	// Completeness is re-verified here against the live answer rows, so a
	// stale allSubmitted poll cannot slip a half-submitted sheet through.
	// A concluded session skips the gate: its result stays available even
	// if the catalog changed afterwards.
	if !session.Concluded {
		questions, err := s.Catalog.Questions("")
		if err != nil {
			return MatchResult{}, nil, err
		}
		counts := answeredCounts(answers)
		for _, m := range members {
			if counts[m.ID] < len(questions) {
				return MatchResult{}, nil, ErrNotReady
			}
		}
	}

	result := score(session.ID, members, answers)

	if session.Concluded {
		if session.MatchPercentage != nil {
			result.Percentage = *session.MatchPercentage
		}
	} else {
		if err := s.Store.MarkConcluded(session.ID, result.Percentage); err != nil {
			return MatchResult{}, nil, err
		}
		metrics.MatchesConcluded.Inc()
		metrics.MatchPercentage.Observe(float64(result.Percentage))
		log.Printf("🎯 Session %s concluded at %d%% match", session.Code, result.Percentage)
	}

	var voucher *models.Voucher
	if s.Rewards != nil && result.Percentage >= s.MinRewardPercentage {
		v, err := s.Rewards.Ensure(session.ID, result.Percentage)
		if err != nil {
			// Results stay available; the next poll retries issuance.
			log.Printf("⚠️ Voucher issuance failed for session %s: %v", session.Code, err)
		} else {
			voucher = &v
		}
	}

	return result, voucher, nil
}

// score builds the scorecard from the raw answer rows. Answers from anyone
// who is not one of the two members are ignored.
func score(sessionID string, members []models.Participant, answers []models.SessionAnswer) MatchResult {
	ref, partner := members[0], members[1]

	refAnswers := make(map[string]models.SessionAnswer)
	partnerAnswers := make(map[string]models.SessionAnswer)
	for _, a := range answers {
		switch a.ParticipantID {
		case ref.ID:
			refAnswers[a.QuestionID] = a
		case partner.ID:
			partnerAnswers[a.QuestionID] = a
		}
	}

	matching := []MatchingAnswer{}
	nonMatching := []NonMatchingAnswer{}
	for qid, ra := range refAnswers {
		pa, ok := partnerAnswers[qid]
		if !ok {
			continue
		}
		if ra.OptionText == pa.OptionText {
			matching = append(matching, MatchingAnswer{
				QuestionID:   qid,
				QuestionText: ra.QuestionText,
				Answer:       ra.OptionText,
			})
		} else {
			nonMatching = append(nonMatching, NonMatchingAnswer{
				QuestionID:    qid,
				QuestionText:  ra.QuestionText,
				YourAnswer:    ra.OptionText,
				PartnerAnswer: pa.OptionText,
			})
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].QuestionID < matching[j].QuestionID })
	sort.Slice(nonMatching, func(i, j int) bool { return nonMatching[i].QuestionID < nonMatching[j].QuestionID })

	mutual := len(matching) + len(nonMatching)
	percentage := 0
	if mutual > 0 {
		percentage = int(math.Round(float64(len(matching)) * 100 / float64(mutual)))
	}

	return MatchResult{
		SessionID:              sessionID,
		ReferenceParticipantID: ref.ID,
		Percentage:             percentage,
		Matching:               matching,
		NonMatching:            nonMatching,
	}
}

// answeredCounts returns how many distinct questions each participant has
// answered. Rows are unique per (participant, question), the store upserts.
func answeredCounts(answers []models.SessionAnswer) map[string]int {
	counts := make(map[string]int)
	for _, a := range answers {
		counts[a.ParticipantID]++
	}
	return counts
}

// --- Handlers ---

// GetSessionResults handles GET /sessions/:code/results
func (s *MatchService) GetSessionResults(c *fiber.Ctx) error {
	code := c.Params("code")

	result, voucher, err := s.Results(code)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		case errors.Is(err, ErrNotReady):
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "waiting"})
		}
		log.Printf("❌ Failed to compute results for session %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute results"})
	}

	resp := fiber.Map{
		"session_id":               result.SessionID,
		"reference_participant_id": result.ReferenceParticipantID,
		"match_percentage":         result.Percentage,
		"matching":                 result.Matching,
		"non_matching":             result.NonMatching,
	}
	if voucher != nil {
		resp["voucher"] = fiber.Map{
			"id":          voucher.ID,
			"code":        voucher.Code,
			"reward_name": voucher.RewardName,
			"discount":    voucher.DiscountText,
			"expires_at":  voucher.ExpiresAt,
			"downloaded":  voucher.Downloaded,
		}
	}
	return c.JSON(resp)
}
