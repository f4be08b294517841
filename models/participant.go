package models

// Participant is a person who registered for the quiz, either through the
// walk-in form or imported from the event registration platform.
// The match engine only ever reads participants.
type Participant struct {
	ID    string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"index" json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Set only for rows mirrored from the registration platform.
	// Walk-in registrations leave it nil.
	ExternalID *string `gorm:"uniqueIndex" json:"external_id,omitempty"`

	Timestamps
}
