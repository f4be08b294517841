package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/storage"
)

func TestCreateSessionCode(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewSessionService(store, store)

	session, err := svc.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("session has no ID")
	}
	if len(session.Code) != SessionCodeLength {
		t.Fatalf("code length = %d, want %d", len(session.Code), SessionCodeLength)
	}
	for _, r := range session.Code {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r) {
			t.Fatalf("code %q contains %q, want uppercase alphanumeric only", session.Code, r)
		}
	}

	stored, err := store.GetSessionByCode(session.Code)
	if err != nil {
		t.Fatalf("GetSessionByCode returned error: %v", err)
	}
	if stored.ID != session.ID || stored.Concluded {
		t.Fatalf("stored session = %+v, want fresh session %s", stored, session.ID)
	}
}

func TestCreateSessionRetriesOnCollision(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.CreateSession(&models.QuizSession{ID: "s-taken", Code: "TAKEN1"}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	svc := NewSessionService(store, store)
	codes := []string{"TAKEN1", "TAKEN1", "FRESH1"}
	svc.codeGen = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	session, err := svc.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if session.Code != "FRESH1" {
		t.Fatalf("code = %q, want FRESH1 after two collisions", session.Code)
	}
}

func TestCreateSessionExhaustsRetries(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.CreateSession(&models.QuizSession{ID: "s-taken", Code: "TAKEN1"}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	svc := NewSessionService(store, store)
	svc.codeGen = func() string { return "TAKEN1" }

	if _, err := svc.Create(); !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("Create = %v, want ErrCodeSpaceExhausted", err)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, _ := seedPair(store)
	svc := NewSessionService(store, store)
	session, err := svc.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, members, err := svc.Join(session.Code, anna.ID)
	if err != nil || len(members) != 1 {
		t.Fatalf("first join = (%d members, %v), want (1, nil)", len(members), err)
	}
	_, members, err = svc.Join(session.Code, anna.ID)
	if err != nil || len(members) != 1 {
		t.Fatalf("re-join = (%d members, %v), want (1, nil)", len(members), err)
	}
}

func TestJoinCapacity(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	carla := models.Participant{ID: "p-carla", Name: "Carla"}
	store.SeedParticipant(carla)

	svc := NewSessionService(store, store)
	session := pairedSession(t, store, anna, ben)

	if _, _, err := svc.Join(session.Code, carla.ID); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("third join = %v, want ErrSessionFull", err)
	}
	// A member retrying their join after the session filled up still succeeds.
	if _, _, err := svc.Join(session.Code, ben.ID); err != nil {
		t.Fatalf("member re-join on full session = %v, want nil", err)
	}
}

func TestJoinUnknownSessionAndParticipant(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, _ := seedPair(store)
	svc := NewSessionService(store, store)
	session, err := svc.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, _, err := svc.Join("NOSUCH", anna.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("join unknown code = %v, want ErrSessionNotFound", err)
	}
	if _, _, err := svc.Join(session.Code, "p-ghost"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("join unknown participant = %v, want ErrParticipantNotFound", err)
	}
}

func TestJoinCodeIsCaseInsensitive(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, _ := seedPair(store)
	svc := NewSessionService(store, store)
	svc.codeGen = func() string { return "MIXED1" }

	if _, err := svc.Create(); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, _, err := svc.Join(" mixed1 ", anna.ID); err != nil {
		t.Fatalf("lowercase padded join = %v, want nil", err)
	}
}

func TestStatusSortsMembersAndTracksSubmission(t *testing.T) {
	store := storage.NewMemoryStore()
	anna, ben := seedPair(store)
	seedQuestion(store, "q1", models.QuestionCategoryCommon, "Coffee or tea?", "Coffee", "Tea")

	svc := NewSessionService(store, store)
	session, err := svc.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// Ben joins first; the lobby must still list Anna first.
	if _, _, err := svc.Join(session.Code, ben.ID); err != nil {
		t.Fatalf("Ben join returned error: %v", err)
	}
	if _, _, err := svc.Join(session.Code, anna.ID); err != nil {
		t.Fatalf("Anna join returned error: %v", err)
	}

	status, err := svc.Status(session.Code)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.Capacity != models.SessionCapacity || status.MemberCount != 2 {
		t.Fatalf("lobby head = %+v", status)
	}
	if status.Members[0].ParticipantID != anna.ID || status.Members[1].ParticipantID != ben.ID {
		t.Fatalf("member order = [%s, %s], want [%s, %s]",
			status.Members[0].ParticipantID, status.Members[1].ParticipantID, anna.ID, ben.ID)
	}

	answerSvc := NewAnswerService(store, store)
	submitSheet(t, answerSvc, session.Code, ben.ID, map[string]string{"q1": "q1-o2"})

	status, err = svc.Status(session.Code)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.Members[0].Submitted || !status.Members[1].Submitted {
		t.Fatalf("submitted flags = [%v, %v], want [false, true]",
			status.Members[0].Submitted, status.Members[1].Submitted)
	}
}
