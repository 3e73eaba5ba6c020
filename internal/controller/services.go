package controller

import (
	"context"
	"io"

	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/service"
	"testcracker/internal/util"
)

// Controllers talk to the service layer through these.

type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	CurrentUser(ctx context.Context, claims *util.Claims) (*model.User, error)
}

type UserManager interface {
	List(ctx context.Context, q repository.Query) (*service.Page[model.User], error)
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, in service.CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id string, in service.UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
}

type ExamManager interface {
	List(ctx context.Context, q repository.Query) (*service.Page[model.Exam], error)
	Get(ctx context.Context, id string) (*model.Exam, error)
	GetByCode(ctx context.Context, code string) (*model.Exam, error)
	Create(ctx context.Context, in service.ExamInput) (*model.Exam, error)
	BulkCreate(ctx context.Context, inputs []service.ExamInput) ([]model.Exam, error)
	Update(ctx context.Context, id string, in service.UpdateExamInput) (*model.Exam, error)
	Delete(ctx context.Context, id string) error
	UploadPaper(ctx context.Context, id, filename string, r io.Reader, size int64) (*model.Exam, error)
	Stats(ctx context.Context, id string) (*service.ExamStats, error)
}

type AttemptManager interface {
	Start(ctx context.Context, userID, examID string) (*model.Attempt, error)
	Submit(ctx context.Context, id string, actor *util.Claims, score float64) (*model.Attempt, error)
	Get(ctx context.Context, id string, actor *util.Claims) (*model.Attempt, error)
	ListMine(ctx context.Context, userID string, q repository.Query) (*service.Page[model.Attempt], error)
	List(ctx context.Context, q repository.Query) (*service.Page[model.Attempt], error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) ([]service.ExamAttemptStats, error)
}

var (
	_ Authenticator  = (*service.AuthService)(nil)
	_ UserManager    = (*service.UserService)(nil)
	_ ExamManager    = (*service.ExamService)(nil)
	_ AttemptManager = (*service.AttemptService)(nil)
)
