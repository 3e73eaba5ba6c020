package model

import (
	"time"

	"gorm.io/gorm"
)

// swagger:model Exam
type Exam struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	DurationMin int       `gorm:"not null" json:"durationMin"`
	TotalMarks  int       `gorm:"not null" json:"totalMarks"`
	PaperURL    *string   `gorm:"size:512" json:"paperUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Attempts []Attempt `gorm:"foreignKey:ExamID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"attempts,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = GenerateID()
	}
	return nil
}
