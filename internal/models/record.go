package models

import "time"

// ParticipationRecord is the durable outcome of one verification request.
// At most one logical record exists per (Email, Date); a resubmission for the
// same pair overwrites the previous values.
type ParticipationRecord struct {
	Email        string    `json:"email" db:"email"`
	Date         string    `json:"date" db:"date"`
	Name         string    `json:"name" db:"name"`
	Participated bool      `json:"participated" db:"participated"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// VerificationEvent is published after a verdict has been durably recorded.
type VerificationEvent struct {
	Email         string    `json:"email"`
	Date          string    `json:"date"`
	Name          string    `json:"name"`
	NameMatch     bool      `json:"name_match"`
	FaceMatch     bool      `json:"face_match"`
	Participation bool      `json:"participation"`
	ImageKey      string    `json:"image_key"`
	Timestamp     time.Time `json:"timestamp"`
}
