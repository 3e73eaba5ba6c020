package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one user's run through one exam. Score and SubmittedAt stay nil
// until the attempt is submitted.
//
// swagger:model Attempt
type Attempt struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"userId"`
	ExamID      string     `gorm:"type:uuid;not null;index" json:"examId"`
	StartedAt   time.Time  `gorm:"not null" json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt"`
	Score       *float64   `json:"score"`
	CreatedAt   time.Time  `json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Exam *Exam `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = GenerateID()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	return nil
}

func (a *Attempt) Submitted() bool {
	return a.SubmittedAt != nil
}
