package services

import (
	"errors"
	"testing"

	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
)

func TestSubmitRejectsSheetWithUnknownQuestion(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)
	err := svc.Submit(session.Code, anna.ID, []AnswerSubmission{
		{QuestionID: "q1", OptionID: "q1-o1"},
		{QuestionID: "q9", OptionID: "q9-o1"},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit = %v, want ValidationError", err)
	}

	// The whole sheet is rejected; the valid entry was not persisted either.
	answered, err := store.HasAnswered(session.ID, anna.ID)
	if err != nil || answered {
		t.Fatalf("HasAnswered after rejected sheet = (%v, %v), want (false, nil)", answered, err)
	}
}

func TestSubmitRejectsForeignOption(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)
	err := svc.Submit(session.Code, anna.ID, []AnswerSubmission{
		{QuestionID: "q1", OptionID: "q2-o1"}, // option belongs to q2
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit = %v, want ValidationError", err)
	}
	answered, _ := store.HasAnswered(session.ID, anna.ID)
	if answered {
		t.Fatalf("rejected sheet must not persist anything")
	}
}

func TestSubmitRejectsEmptySheet(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)
	err := svc.Submit(session.Code, anna.ID, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit with empty sheet = %v, want ValidationError", err)
	}
}

func TestSubmitRequiresMembership(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	carla := models.Participant{ID: "p-carla", Name: "Carla"}
	store.SeedParticipant(carla)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)
	sheet := []AnswerSubmission{{QuestionID: "q1", OptionID: "q1-o1"}}

	if err := svc.Submit(session.Code, carla.ID, sheet); !errors.Is(err, ErrNotMember) {
		t.Fatalf("non-member submit = %v, want ErrNotMember", err)
	}
	if err := svc.Submit("NOSUCH", anna.ID, sheet); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("submit to unknown session = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmitAfterConclusionRejected(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)
	if err := store.MarkConcluded(session.ID, 100); err != nil {
		t.Fatalf("MarkConcluded returned error: %v", err)
	}

	svc := NewAnswerService(store, store)
	err := svc.Submit(session.Code, anna.ID, []AnswerSubmission{{QuestionID: "q1", OptionID: "q1-o1"}})
	if !errors.Is(err, ErrSessionConcluded) {
		t.Fatalf("Submit on concluded session = %v, want ErrSessionConcluded", err)
	}
}

func TestResubmitReplacesAnswer(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)
	submitSheet(t, svc, session.Code, anna.ID, map[string]string{"q1": "q1-o1"})
	submitSheet(t, svc, session.Code, anna.ID, map[string]string{"q1": "q1-o2"})

	rows, err := store.GetAnswersForSession(session.ID)
	if err != nil {
		t.Fatalf("GetAnswersForSession returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("answer rows = %d, want 1 after resubmission", len(rows))
	}
	if rows[0].OptionID != "q1-o2" || rows[0].OptionText != "Tea" {
		t.Fatalf("stored answer = %+v, want the replacement option", rows[0])
	}
}

func TestSubmitLastEntryWinsWithinOneSheet(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)
	err := svc.Submit(session.Code, anna.ID, []AnswerSubmission{
		{QuestionID: "q1", OptionID: "q1-o1"},
		{QuestionID: "q1", OptionID: "q1-o2"},
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	rows, _ := store.GetAnswersForSession(session.ID)
	if len(rows) != 1 || rows[0].OptionID != "q1-o2" {
		t.Fatalf("stored rows = %+v, want single q1-o2", rows)
	}
}

func TestHasSubmittedAndAllSubmitted(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")
	seedQuestion(store, "q2", models.QuestionCategoryCommon, "Cats or dogs?", "Cats", "Dogs")
	seedQuestion(store, "q3", models.QuestionCategoryIndividual, "Pick a color", "Red", "Blue")
	session := pairedSession(t, store, anna, ben)

	svc := NewAnswerService(store, store)

	submitted, err := svc.HasSubmitted(session.Code, anna.ID)
	if err != nil || submitted {
		t.Fatalf("HasSubmitted before answers = (%v, %v), want (false, nil)", submitted, err)
	}

	submitSheet(t, svc, session.Code, anna.ID, map[string]string{"q1": "q1-o1", "q2": "q2-o1", "q3": "q3-o1"})
	submitted, err = svc.HasSubmitted(session.Code, anna.ID)
	if err != nil || !submitted {
		t.Fatalf("HasSubmitted after sheet = (%v, %v), want (true, nil)", submitted, err)
	}

	// Ben has a partial sheet: the session is not all-submitted until he
	// has covered the whole catalog.
	submitSheet(t, svc, session.Code, ben.ID, map[string]string{"q1": "q1-o1", "q2": "q2-o2"})
	all, err := svc.AllSubmitted(session.Code)
	if err != nil || all {
		t.Fatalf("AllSubmitted with partial sheet = (%v, %v), want (false, nil)", all, err)
	}

	submitSheet(t, svc, session.Code, ben.ID, map[string]string{"q3": "q3-o2"})
	all, err = svc.AllSubmitted(session.Code)
	if err != nil || !all {
		t.Fatalf("AllSubmitted with full sheets = (%v, %v), want (true, nil)", all, err)
	}
}
