package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionCapacity is the hard membership cap per quiz session.
const SessionCapacity = 2

// QuizSession is one paired challenge instance. Two participants share it
// via the short code; once both have submitted their answers the match is
// computed and the session concludes, exactly once.
type QuizSession struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"uniqueIndex;not null;size:12"` // stored uppercase

	Concluded       bool `json:"concluded" gorm:"default:false"`
	MatchPercentage *int `json:"match_percentage,omitempty"`

	Timestamps
}

// SessionMember records that a participant belongs to a session.
// Rows are never mutated or deleted; the composite unique index makes
// a duplicate membership impossible at the data layer.
type SessionMember struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	SessionID     string    `json:"session_id" gorm:"not null;uniqueIndex:idx_session_member"`
	ParticipantID string    `json:"participant_id" gorm:"not null;uniqueIndex:idx_session_member"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
