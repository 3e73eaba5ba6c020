package repository

import (
	"context"

	"testcracker/internal/model"

	"gorm.io/gorm"
)

var examSchema = Schema{
	Fields: map[string]Field{
		"id":          {Column: "id", Kind: KindUUID},
		"code":        {Column: "code", Kind: KindString},
		"name":        {Column: "name", Kind: KindString},
		"description": {Column: "description", Kind: KindString, Nullable: true},
		"durationMin": {Column: "duration_min", Kind: KindInt},
		"totalMarks":  {Column: "total_marks", Kind: KindInt},
		"paperUrl":    {Column: "paper_url", Kind: KindString, Nullable: true},
		"createdAt":   {Column: "created_at", Kind: KindTime},
		"updatedAt":   {Column: "updated_at", Kind: KindTime},
	},
	Relations: map[string]string{
		"attempts": "Attempts",
	},
}

type ExamRepository struct {
	*Store[model.Exam]
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{Store: NewStore[model.Exam](db, examSchema)}
}

func (r *ExamRepository) FindByCode(ctx context.Context, code string) (*model.Exam, error) {
	return r.FindFirst(ctx, Query{
		Where: []Filter{{Field: "code", Op: OpEquals, Value: code}},
	})
}
