package repository

import (
	"context"
	"time"

	"testcracker/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var attemptSchema = Schema{
	Fields: map[string]Field{
		"id":          {Column: "id", Kind: KindUUID},
		"userId":      {Column: "user_id", Kind: KindUUID},
		"examId":      {Column: "exam_id", Kind: KindUUID},
		"startedAt":   {Column: "started_at", Kind: KindTime},
		"submittedAt": {Column: "submitted_at", Kind: KindTime, Nullable: true},
		"score":       {Column: "score", Kind: KindFloat, Nullable: true},
		"createdAt":   {Column: "created_at", Kind: KindTime},
	},
	Relations: map[string]string{
		"user": "User",
		"exam": "Exam",
	},
}

type AttemptRepository struct {
	*Store[model.Attempt]
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{Store: NewStore[model.Attempt](db, attemptSchema)}
}

// MarkSubmitted sets submitted_at and score only if the attempt has not been
// submitted yet. It reports whether a row was changed.
func (r *AttemptRepository) MarkSubmitted(ctx context.Context, id string, at time.Time, score float64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "submitted_at"}, Value: nil}).
		Updates(map[string]any{"submitted_at": at, "score": score})
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
