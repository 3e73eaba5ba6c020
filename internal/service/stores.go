package service

import (
	"context"
	"time"

	"testcracker/internal/model"
	"testcracker/internal/repository"
)

// The services depend on these rather than on the concrete repositories.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string, include ...string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindMany(ctx context.Context, q repository.Query) ([]model.User, error)
	Count(ctx context.Context, where []repository.Filter) (int64, error)
	Update(ctx context.Context, id string, fields map[string]any) (*model.User, error)
	SetPassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	GroupBy(ctx context.Context, by []string, where []repository.Filter, spec repository.AggregateSpec, q repository.Query) ([]repository.AggregateResult, error)
}

type ExamStore interface {
	Create(ctx context.Context, exam *model.Exam) error
	CreateMany(ctx context.Context, exams []model.Exam) error
	FindByID(ctx context.Context, id string, include ...string) (*model.Exam, error)
	FindByCode(ctx context.Context, code string) (*model.Exam, error)
	FindMany(ctx context.Context, q repository.Query) ([]model.Exam, error)
	Count(ctx context.Context, where []repository.Filter) (int64, error)
	Update(ctx context.Context, id string, fields map[string]any) (*model.Exam, error)
	Delete(ctx context.Context, id string) error
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *model.Attempt) error
	FindByID(ctx context.Context, id string, include ...string) (*model.Attempt, error)
	FindMany(ctx context.Context, q repository.Query) ([]model.Attempt, error)
	Count(ctx context.Context, where []repository.Filter) (int64, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time, score float64) (bool, error)
	Delete(ctx context.Context, id string) error
	Aggregate(ctx context.Context, where []repository.Filter, spec repository.AggregateSpec) (repository.AggregateResult, error)
	GroupBy(ctx context.Context, by []string, where []repository.Filter, spec repository.AggregateSpec, q repository.Query) ([]repository.AggregateResult, error)
}

var (
	_ UserStore    = (*repository.UserRepository)(nil)
	_ ExamStore    = (*repository.ExamRepository)(nil)
	_ AttemptStore = (*repository.AttemptRepository)(nil)
)
