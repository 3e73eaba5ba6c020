package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/util"
	"testcracker/pkg/cache"
	"testcracker/pkg/logger"

	"go.uber.org/zap"
)

type ExamService struct {
	ExamRepo    ExamStore
	AttemptRepo AttemptStore
	Cache       cache.ExamCache
	Storage     *StorageService
}

func NewExamService(examRepo ExamStore, attemptRepo AttemptStore, examCache cache.ExamCache, storage *StorageService) *ExamService {
	if examCache == nil {
		examCache = cache.Nop{}
	}
	return &ExamService{
		ExamRepo:    examRepo,
		AttemptRepo: attemptRepo,
		Cache:       examCache,
		Storage:     storage,
	}
}

// swagger:model ExamInput
type ExamInput struct {
	Code        string  `json:"code" binding:"required,max=64"`
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	DurationMin int     `json:"durationMin" binding:"required"`
	TotalMarks  int     `json:"totalMarks" binding:"required"`
}

func (in ExamInput) validate() error {
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: code and name are required", util.ErrInvalidInput)
	}
	if in.DurationMin <= 0 {
		return fmt.Errorf("%w: durationMin must be positive", util.ErrInvalidInput)
	}
	if in.TotalMarks <= 0 {
		return fmt.Errorf("%w: totalMarks must be positive", util.ErrInvalidInput)
	}
	return nil
}

func (in ExamInput) model() model.Exam {
	return model.Exam{
		Code:        strings.TrimSpace(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		DurationMin: in.DurationMin,
		TotalMarks:  in.TotalMarks,
	}
}

// swagger:model UpdateExamInput
type UpdateExamInput struct {
	Code        *string `json:"code" binding:"omitempty,max=64"`
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	DurationMin *int    `json:"durationMin"`
	TotalMarks  *int    `json:"totalMarks"`
}

// ExamStats summarizes the attempts made on one exam. Score figures cover
// submitted attempts only and are nil when there are none.
// swagger:model ExamStats
type ExamStats struct {
	ExamID    string   `json:"examId"`
	Attempts  int64    `json:"attempts"`
	Submitted int64    `json:"submitted"`
	AvgScore  *float64 `json:"avgScore"`
	MinScore  *float64 `json:"minScore"`
	MaxScore  *float64 `json:"maxScore"`
}

func (s *ExamService) List(ctx context.Context, q repository.Query) (*Page[model.Exam], error) {
	return paginate[model.Exam](ctx, s.ExamRepo, q, func(e *model.Exam) string { return e.ID })
}

func (s *ExamService) Get(ctx context.Context, id string) (*model.Exam, error) {
	if exam, ok := s.Cache.GetByID(ctx, id); ok {
		return exam, nil
	}
	exam, err := s.ExamRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, exam)
	return exam, nil
}

func (s *ExamService) GetByCode(ctx context.Context, code string) (*model.Exam, error) {
	if exam, ok := s.Cache.GetByCode(ctx, code); ok {
		return exam, nil
	}
	exam, err := s.ExamRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, exam)
	return exam, nil
}

func (s *ExamService) Create(ctx context.Context, in ExamInput) (*model.Exam, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	exam := in.model()
	if err := s.ExamRepo.Create(ctx, &exam); err != nil {
		return nil, examWriteError(err)
	}
	return &exam, nil
}

// BulkCreate inserts all exams or none.
func (s *ExamService) BulkCreate(ctx context.Context, inputs []ExamInput) ([]model.Exam, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no exams given", util.ErrInvalidInput)
	}
	exams := make([]model.Exam, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		if err := in.validate(); err != nil {
			return nil, fmt.Errorf("exam %d: %w", i, err)
		}
		e := in.model()
		if seen[e.Code] {
			return nil, fmt.Errorf("%w: %s appears twice", util.ErrExamCodeTaken, e.Code)
		}
		seen[e.Code] = true
		exams = append(exams, e)
	}
	if err := s.ExamRepo.CreateMany(ctx, exams); err != nil {
		return nil, examWriteError(err)
	}
	return exams, nil
}

func (s *ExamService) Update(ctx context.Context, id string, in UpdateExamInput) (*model.Exam, error) {
	fields := map[string]any{}
	for name, v := range map[string]*string{"code": in.Code, "name": in.Name} {
		if v == nil {
			continue
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", util.ErrInvalidInput, name)
		}
		fields[name] = trimmed
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.DurationMin != nil {
		if *in.DurationMin <= 0 {
			return nil, fmt.Errorf("%w: durationMin must be positive", util.ErrInvalidInput)
		}
		fields["durationMin"] = *in.DurationMin
	}
	if in.TotalMarks != nil {
		if *in.TotalMarks <= 0 {
			return nil, fmt.Errorf("%w: totalMarks must be positive", util.ErrInvalidInput)
		}
		fields["totalMarks"] = *in.TotalMarks
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", util.ErrInvalidInput)
	}

	old, err := s.ExamRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exam, err := s.ExamRepo.Update(ctx, id, fields)
	s.Cache.Invalidate(ctx, old)
	if err != nil {
		return nil, examWriteError(err)
	}
	return exam, nil
}

// Delete fails with ErrForeignKeyViolation while attempts reference the exam.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	exam, err := s.ExamRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ExamRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, exam)
	s.removePaper(ctx, exam)
	return nil
}

// removePaper drops a stored paper. Failures are logged only; the exam row is
// already gone or points elsewhere.
func (s *ExamService) removePaper(ctx context.Context, exam *model.Exam) {
	if s.Storage == nil || exam.PaperURL == nil {
		return
	}
	prefix := s.Storage.GetURL("")
	if !strings.HasPrefix(*exam.PaperURL, prefix) {
		return
	}
	key := strings.TrimPrefix(*exam.PaperURL, prefix)
	if err := s.Storage.Delete(ctx, key); err != nil {
		logger.Log.Warn("Failed to remove exam paper", zap.String("examID", exam.ID), zap.String("key", key), zap.Error(err))
	}
}

var paperTypes = map[string]string{
	".pdf": "application/pdf",
}

// UploadPaper stores the question paper of an exam and records its URL.
func (s *ExamService) UploadPaper(ctx context.Context, id, filename string, r io.Reader, size int64) (*model.Exam, error) {
	contentType, ok := paperTypes[strings.ToLower(path.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("%w: only PDF papers are accepted", util.ErrInvalidInput)
	}
	exam, err := s.ExamRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := PaperKey(id, filename)
	url, err := s.Storage.Upload(ctx, key, r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload paper: %w", err)
	}
	logger.Log.Info("Exam paper uploaded", zap.String("examID", id), zap.String("url", url))

	updated, err := s.ExamRepo.Update(ctx, id, map[string]any{"paperUrl": url})
	s.Cache.Invalidate(ctx, exam)
	if err != nil {
		if derr := s.Storage.Delete(ctx, key); derr != nil {
			logger.Log.Warn("Failed to remove orphaned exam paper", zap.String("examID", id), zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}
	if exam.PaperURL != nil && *exam.PaperURL != url {
		s.removePaper(ctx, exam)
	}
	return updated, nil
}

func (s *ExamService) Stats(ctx context.Context, id string) (*ExamStats, error) {
	if _, err := s.ExamRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	byExam := repository.Filter{Field: "examId", Op: repository.OpEquals, Value: id}

	total, err := s.AttemptRepo.Count(ctx, []repository.Filter{byExam})
	if err != nil {
		return nil, err
	}
	agg, err := s.AttemptRepo.Aggregate(ctx,
		[]repository.Filter{byExam, {Field: "submittedAt", Op: repository.OpIsNotNull}},
		repository.AggregateSpec{
			Count: true,
			Avg:   []string{"score"},
			Min:   []string{"score"},
			Max:   []string{"score"},
		})
	if err != nil {
		return nil, err
	}

	return &ExamStats{
		ExamID:    id,
		Attempts:  total,
		Submitted: asInt64(agg["_count"]),
		AvgScore:  asFloat(subValue(agg, "_avg", "score")),
		MinScore:  asFloat(subValue(agg, "_min", "score")),
		MaxScore:  asFloat(subValue(agg, "_max", "score")),
	}, nil
}

func examWriteError(err error) error {
	if errors.Is(err, util.ErrUniqueViolation) {
		return fmt.Errorf("%w: %v", util.ErrExamCodeTaken, err)
	}
	return err
}
