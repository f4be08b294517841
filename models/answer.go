package models

import "time"

// Answer is one participant's selected option for one question in one
// session. The composite unique index gives re-submission replace
// semantics: a client retry can never create a second row for the same
// question and silently inflate the scoring denominator.
type Answer struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	SessionID     string    `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_unique"`
	ParticipantID string    `json:"participant_id" gorm:"not null;uniqueIndex:idx_answer_unique"`
	QuestionID    string    `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_unique"`
	OptionID      string    `json:"option_id" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// SessionAnswer is the read model the match calculator works on: an answer
// joined with its question text/category and the selected option text.
type SessionAnswer struct {
	ParticipantID    string           `json:"participant_id"`
	QuestionID       string           `json:"question_id"`
	QuestionText     string           `json:"question_text"`
	QuestionCategory QuestionCategory `json:"question_category"`
	OptionID         string           `json:"option_id"`
	OptionText       string           `json:"option_text"`
	CreatedAt        time.Time        `json:"created_at"`
}
