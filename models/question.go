package models

import "time"

// QuestionCategory splits the catalog into questions compared between the
// two participants and questions collected for each side individually.
type QuestionCategory string

const (
	QuestionCategoryCommon     QuestionCategory = "common"
	QuestionCategoryIndividual QuestionCategory = "individual"
)

type Question struct {
	ID       string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Text     string           `json:"text" gorm:"type:text;not null"`
	Category QuestionCategory `json:"category" gorm:"type:varchar(16);not null;default:'common';index"`
	Position int              `json:"position" gorm:"default:0"`

	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID"`

	Timestamps
}

type QuestionOption struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	QuestionID string    `json:"question_id" gorm:"index;not null"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	Position   int       `json:"position" gorm:"default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}
