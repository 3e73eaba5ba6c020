package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/util"
	"testcracker/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AttemptService struct {
	AttemptRepo AttemptStore
	ExamRepo    ExamStore
	now         func() time.Time
}

func NewAttemptService(attemptRepo AttemptStore, examRepo ExamStore) *AttemptService {
	return &AttemptService{
		AttemptRepo: attemptRepo,
		ExamRepo:    examRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// swagger:model SubmitInput
type SubmitInput struct {
	Score *float64 `json:"score" binding:"required"`
}

// ExamAttemptStats is one row of the per-exam attempt summary.
// swagger:model ExamAttemptStats
type ExamAttemptStats struct {
	ExamID    string   `json:"examId"`
	Submitted int64    `json:"submitted"`
	AvgScore  *float64 `json:"avgScore"`
	MaxScore  *float64 `json:"maxScore"`
}

// Start opens a new attempt. An unknown exam or user surfaces as
// ErrForeignKeyViolation.
func (s *AttemptService) Start(ctx context.Context, userID, examID string) (*model.Attempt, error) {
	if _, err := uuid.Parse(examID); err != nil {
		return nil, fmt.Errorf("%w: unknown exam %q", util.ErrForeignKeyViolation, examID)
	}
	attempt := &model.Attempt{
		UserID:    userID,
		ExamID:    examID,
		StartedAt: s.now(),
	}
	if err := s.AttemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}
	logger.Log.Debug("Attempt started",
		zap.String("attemptID", attempt.ID),
		zap.String("userID", userID),
		zap.String("examID", examID),
	)
	return attempt, nil
}

// Submit records the score of an attempt. It succeeds once per attempt and
// only for its owner or an admin.
func (s *AttemptService) Submit(ctx context.Context, id string, actor *util.Claims, score float64) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, id, "exam")
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, attempt) {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Submitted() {
		return nil, util.ErrAttemptAlreadySubmitted
	}

	exam := attempt.Exam
	if exam == nil {
		if exam, err = s.ExamRepo.FindByID(ctx, attempt.ExamID); err != nil {
			return nil, err
		}
	}
	if math.IsNaN(score) || score < 0 || score > float64(exam.TotalMarks) {
		return nil, fmt.Errorf("%w: must be between 0 and %d", util.ErrInvalidScore, exam.TotalMarks)
	}

	ok, err := s.AttemptRepo.MarkSubmitted(ctx, id, s.now(), score)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrAttemptAlreadySubmitted
	}
	return s.AttemptRepo.FindByID(ctx, id, "exam")
}

func (s *AttemptService) Get(ctx context.Context, id string, actor *util.Claims) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, id, "exam")
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, attempt) {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

// ListMine lists the caller's own attempts with their exams.
func (s *AttemptService) ListMine(ctx context.Context, userID string, q repository.Query) (*Page[model.Attempt], error) {
	q.Where = append([]repository.Filter{{Field: "userId", Op: repository.OpEquals, Value: userID}}, q.Where...)
	q.Include = []string{"exam"}
	return s.List(ctx, q)
}

func (s *AttemptService) List(ctx context.Context, q repository.Query) (*Page[model.Attempt], error) {
	return paginate[model.Attempt](ctx, s.AttemptRepo, q, func(a *model.Attempt) string { return a.ID })
}

func (s *AttemptService) Delete(ctx context.Context, id string) error {
	return s.AttemptRepo.Delete(ctx, id)
}

// Stats summarizes submitted attempts per exam.
func (s *AttemptService) Stats(ctx context.Context) ([]ExamAttemptStats, error) {
	groups, err := s.AttemptRepo.GroupBy(ctx,
		[]string{"examId"},
		[]repository.Filter{{Field: "submittedAt", Op: repository.OpIsNotNull}},
		repository.AggregateSpec{Count: true, Avg: []string{"score"}, Max: []string{"score"}},
		repository.Query{},
	)
	if err != nil {
		return nil, err
	}

	out := make([]ExamAttemptStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, ExamAttemptStats{
			ExamID:    asString(g["examId"]),
			Submitted: asInt64(g["_count"]),
			AvgScore:  asFloat(subValue(g, "_avg", "score")),
			MaxScore:  asFloat(subValue(g, "_max", "score")),
		})
	}
	return out, nil
}

func canAccess(actor *util.Claims, attempt *model.Attempt) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.UserID == attempt.UserID
}
