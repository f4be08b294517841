package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
)

func TestResultsNotReadyStates(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")

	sessions := NewSessionService(store, store)
	session, err := sessions.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, _, err := sessions.Join(session.Code, anna.ID); err != nil {
		t.Fatalf("join returned error: %v", err)
	}

	matches := NewMatchService(store, store, nil, 50)

	if _, _, err := matches.Results(session.Code); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Results with one member = %v, want ErrNotReady", err)
	}

	if _, _, err := sessions.Join(session.Code, ben.ID); err != nil {
		t.Fatalf("join returned error: %v", err)
	}
	if _, _, err := matches.Results(session.Code); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Results with no answers = %v, want ErrNotReady", err)
	}

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{"q1": "q1-o1"})
	if _, _, err := matches.Results(session.Code); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Results with one sheet = %v, want ErrNotReady", err)
	}

	// None of the early polls may have concluded the session.
	current, err := store.GetSessionByCode(session.Code)
	if err != nil || current.Concluded {
		t.Fatalf("session after NotReady polls = (%+v, %v), want unconcluded", current, err)
	}

	if _, _, err := matches.Results("NOSUCH"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Results for unknown code = %v, want ErrSessionNotFound", err)
	}
}

func TestResultsScoreAndPartition(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
	seedQuestion(store, "q3", models.QuestionCategoryCommon, "Beach or mountains?", "Beach", "Mountains")
	seedQuestion(store, "q4", models.QuestionCategoryCommon, "Window or aisle seat?", "Window", "Aisle")
	session := pairedSession(t, store, anna, ben)

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{
		"q1": "q1-o1", "q2": "q2-o1", "q3": "q3-o1", "q4": "q4-o1",
	})
	submitSheet(t, answerSvc, session.Code, ben.ID, map[string]string{
		"q1": "q1-o1", "q2": "q2-o1", "q3": "q3-o2", "q4": "q4-o2",
	})

	rewards := NewRewardService(store)
	matches := NewMatchService(store, store, rewards, 50)

	result, voucher, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("Results returned error: %v", err)
	}
	if result.Percentage != 50 {
		t.Fatalf("percentage = %d, want 50", result.Percentage)
	}
	if result.ReferenceParticipantID != anna.ID {
		t.Fatalf("reference = %q, want lowest participant ID %q", result.ReferenceParticipantID, anna.ID)
	}

	wantMatching := []MatchingAnswer{
		{QuestionID: "q1", QuestionText: "Coffee or tea?", Answer: "Coffee"},
		{QuestionID: "q2", QuestionText: "Cats or dogs?", Answer: "Cats"},
	}
	if !reflect.DeepEqual(result.Matching, wantMatching) {
		t.Fatalf("matching = %+v, want %+v", result.Matching, wantMatching)
	}
	wantNonMatching := []NonMatchingAnswer{
		{QuestionID: "q3", QuestionText: "Beach or mountains?", YourAnswer: "Beach", PartnerAnswer: "Mountains"},
		{QuestionID: "q4", QuestionText: "Window or aisle seat?", YourAnswer: "Window", PartnerAnswer: "Aisle"},
	}
	if !reflect.DeepEqual(result.NonMatching, wantNonMatching) {
		t.Fatalf("non-matching = %+v, want %+v", result.NonMatching, wantNonMatching)
	}

	// 50% meets the 50% gate.
	if voucher == nil {
		t.Fatalf("expected a voucher at exactly the reward gate")
	}

	current, _ := store.GetSessionByCode(session.Code)
	if !current.Concluded || current.MatchPercentage == nil || *current.MatchPercentage != 50 {
		t.Fatalf("session after Results = %+v, want concluded at 50", current)
	}
}

func TestResultsDeterministicAcrossCalls(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
	session := pairedSession(t, store, anna, ben)

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{"q1": "q1-o1", "q2": "q2-o2"})
	submitSheet(t, answerSvc, session.Code, ben.ID, map[string]string{"q1": "q1-o2", "q2": "q2-o2"})

	matches := NewMatchService(store, store, NewRewardService(store), 50)

	first, firstVoucher, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("first Results returned error: %v", err)
	}
	second, secondVoucher, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("second Results returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results diverged:\nfirst  %+v\nsecond %+v", first, second)
	}
	if firstVoucher == nil || secondVoucher == nil || firstVoucher.ID != secondVoucher.ID {
		t.Fatalf("vouchers diverged: %+v vs %+v", firstVoucher, secondVoucher)
	}
}

func TestResultsRounding(t *testing.T) {
	cases := []struct {
		name      string
		benPicks  map[string]string
		wantPct   int
		wantMatch int
	}{
		{
			name:      "one of three",
			benPicks:  map[string]string{"q1": "q1-o1", "q2": "q2-o2", "q3": "q3-o2"},
			wantPct:   33,
			wantMatch: 1,
		},
		{
			name:      "two of three",
			benPicks:  map[string]string{"q1": "q1-o1", "q2": "q2-o1", "q3": "q3-o2"},
			wantPct:   67,
			wantMatch: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			anna, ben := seedPair(store)
			seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
			seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
			seedQuestion(store, "q3", models.QuestionCategoryCommon, "Beach or mountains?", "Beach", "Mountains")
			session := pairedSession(t, store, anna, ben)

			answerSvc := NewAnswerService(store, store)
			submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{
				"q1": "q1-o1", "q2": "q2-o1", "q3": "q3-o1",
			})
			submitSheet(t, answerSvc, session.Code, ben.ID, tc.benPicks)

			matches := NewMatchService(store, store, nil, 50)
			result, _, err := matches.Results(session.Code)
			if err != nil {
				t.Fatalf("Results returned error: %v", err)
			}
			if result.Percentage != tc.wantPct || len(result.Matching) != tc.wantMatch {
				t.Fatalf("got %d%% with %d matching, want %d%% with %d",
					result.Percentage, len(result.Matching), tc.wantPct, tc.wantMatch)
			}
		})
	}
}

func TestResultsZeroMutualAnswers(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
	session := pairedSession(t, store, anna, ben)

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{"q1": "q1-o1", "q2": "q2-o1"})

	// Ben's answers point at questions that were since removed from the
	// catalog; his sheet is complete by count but shares nothing with Anna.
	if err := store.SaveAnswer(session.ID, ben.ID, "q-old-1", "q-old-1-o1"); err != nil {
		t.Fatalf("SaveAnswer returned error: %v", err)
	}
	if err := store.SaveAnswer(session.ID, ben.ID, "q-old-2", "q-old-2-o1"); err != nil {
		t.Fatalf("SaveAnswer returned error: %v", err)
	}

	matches := NewMatchService(store, store, NewRewardService(store), 50)
	result, voucher, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("Results returned error: %v", err)
	}
	if result.Percentage != 0 || len(result.Matching) != 0 || len(result.NonMatching) != 0 {
		t.Fatalf("disjoint sheets scored %+v, want 0%% and empty partitions", result)
	}
	if voucher != nil {
		t.Fatalf("0%% must not earn a voucher, got %+v", voucher)
	}
	if _, err := store.GetVoucherBySession(session.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("voucher lookup = %v, want ErrNotFound", err)
	}
}

func TestResultsStoredPercentageStaysAuthoritative(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
	session := pairedSession(t, store, anna, ben)

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{"q1": "q1-o1", "q2": "q2-o1"})
	submitSheet(t, answerSvc, session.Code, ben.ID, map[string]string{"q1": "q1-o1", "q2": "q2-o2"})

	matches := NewMatchService(store, store, nil, 50)
	first, _, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("Results returned error: %v", err)
	}
	if first.Percentage != 50 {
		t.Fatalf("percentage = %d, want 50", first.Percentage)
	}

	// An answer row changes underneath a concluded session (backfill, admin
	// surgery). The stored percentage does not move.
	if err := store.SaveAnswer(session.ID, ben.ID, "q2", "q2-o1"); err != nil {
		t.Fatalf("SaveAnswer returned error: %v", err)
	}
	second, _, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("second Results returned error: %v", err)
	}
	if second.Percentage != 50 {
		t.Fatalf("stored percentage drifted to %d, want 50", second.Percentage)
	}
	if len(second.Matching) != 2 {
		t.Fatalf("recomputed partition = %d matching, want 2", len(second.Matching))
	}
}

func TestResultsIgnoresStrangerAnswers(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{"q1": "q1-o1"})
	submitSheet(t, answerSvc, session.Code, ben.ID, map[string]string{"q1": "q1-o1"})

	// A row from someone who never joined must not disturb the pair's score.
	if err := store.SaveAnswer(session.ID, "p-zelda", "q1", "q1-o2"); err != nil {
		t.Fatalf("SaveAnswer returned error: %v", err)
	}

	matches := NewMatchService(store, store, nil, 50)
	result, _, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("Results returned error: %v", err)
	}
	if result.Percentage != 100 || len(result.Matching) != 1 {
		t.Fatalf("result with stranger row = %+v, want clean 100%%", result)
	}
}

func TestResultsBelowGateSkipsVoucher(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, anna.ID, map[string]string{"q1": "q1-o1"})
	submitSheet(t, answerSvc, session.Code, ben.ID, map[string]string{"q1": "q1-o2"})

	matches := NewMatchService(store, store, NewRewardService(store), 50)
	result, voucher, err := matches.Results(session.Code)
	if err != nil {
		t.Fatalf("Results returned error: %v", err)
	}
	if result.Percentage != 0 {
		t.Fatalf("percentage = %d, want 0", result.Percentage)
	}
	if voucher != nil {
		t.Fatalf("below-gate session earned a voucher: %+v", voucher)
	}
	if _, err := store.GetVoucherBySession(session.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("voucher lookup = %v, want ErrNotFound", err)
	}

	current, _ := store.GetSessionByCode(session.Code)
	if !current.Concluded {
		t.Fatalf("session must conclude even when no voucher is earned")
	}
}
