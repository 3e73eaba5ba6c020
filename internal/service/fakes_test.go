package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/util"
)

type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]*model.User
	order    []string
	withRefs map[string]bool
	groups   []repository.AggregateResult
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*model.User{}, withRefs: map[string]bool{}}
}

func (f *fakeUsers) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: users_email_key", util.ErrUniqueViolation)
		}
	}
	if user.ID == "" {
		user.ID = model.GenerateID()
	}
	cp := *user
	f.users[user.ID] = &cp
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string, include ...string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeUsers) FindMany(ctx context.Context, q repository.Query) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, id := range f.order {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return window(out, q), nil
}

func (f *fakeUsers) Count(ctx context.Context, where []repository.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUsers) Update(ctx context.Context, id string, fields map[string]any) (*model.User, error) {
	f.mu.Lock()
	u, ok := f.users[id]
	if !ok {
		f.mu.Unlock()
		return nil, util.ErrNotFound
	}
	if v, ok := fields["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := fields["role"]; ok {
		u.Role = model.Role(v.(string))
	}
	f.mu.Unlock()
	return f.FindByID(ctx, id)
}

func (f *fakeUsers) SetPassword(ctx context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return util.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return util.ErrNotFound
	}
	if f.withRefs[id] {
		return fmt.Errorf("%w: attempts_user_id_fkey", util.ErrForeignKeyViolation)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) GroupBy(ctx context.Context, by []string, where []repository.Filter, spec repository.AggregateSpec, q repository.Query) ([]repository.AggregateResult, error) {
	return f.groups, nil
}

type fakeExams struct {
	mu    sync.Mutex
	exams map[string]*model.Exam
	order []string
	reads int
}

func newFakeExams() *fakeExams {
	return &fakeExams{exams: map[string]*model.Exam{}}
}

func (f *fakeExams) insert(e *model.Exam) error {
	for _, x := range f.exams {
		if x.Code == e.Code {
			return fmt.Errorf("%w: exams_code_key", util.ErrUniqueViolation)
		}
	}
	if e.ID == "" {
		e.ID = model.GenerateID()
	}
	cp := *e
	f.exams[e.ID] = &cp
	f.order = append(f.order, e.ID)
	return nil
}

func (f *fakeExams) Create(ctx context.Context, exam *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(exam)
}

func (f *fakeExams) CreateMany(ctx context.Context, exams []model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make(map[string]*model.Exam, len(f.exams))
	for k, v := range f.exams {
		snapshot[k] = v
	}
	order := append([]string(nil), f.order...)
	for i := range exams {
		if err := f.insert(&exams[i]); err != nil {
			f.exams, f.order = snapshot, order
			return err
		}
	}
	return nil
}

func (f *fakeExams) FindByID(ctx context.Context, id string, include ...string) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	e, ok := f.exams[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExams) FindByCode(ctx context.Context, code string) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	for _, e := range f.exams {
		if e.Code == code {
			cp := *e
			return &cp, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeExams) FindMany(ctx context.Context, q repository.Query) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Exam
	for _, id := range f.order {
		if e, ok := f.exams[id]; ok {
			out = append(out, *e)
		}
	}
	return window(out, q), nil
}

func (f *fakeExams) Count(ctx context.Context, where []repository.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.exams)), nil
}

func (f *fakeExams) Update(ctx context.Context, id string, fields map[string]any) (*model.Exam, error) {
	f.mu.Lock()
	e, ok := f.exams[id]
	if !ok {
		f.mu.Unlock()
		return nil, util.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "code":
			for _, x := range f.exams {
				if x.ID != id && x.Code == v.(string) {
					f.mu.Unlock()
					return nil, fmt.Errorf("%w: exams_code_key", util.ErrUniqueViolation)
				}
			}
			e.Code = v.(string)
		case "name":
			e.Name = v.(string)
		case "totalMarks":
			e.TotalMarks = v.(int)
		case "durationMin":
			e.DurationMin = v.(int)
		case "paperUrl":
			url := v.(string)
			e.PaperURL = &url
		}
	}
	f.mu.Unlock()
	return f.FindByID(ctx, id)
}

func (f *fakeExams) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exams[id]; !ok {
		return util.ErrNotFound
	}
	delete(f.exams, id)
	return nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts map[string]*model.Attempt
	exams    *fakeExams
	users    *fakeUsers
	agg      repository.AggregateResult
	groups   []repository.AggregateResult
	lastAgg  []repository.Filter
}

func newFakeAttempts(exams *fakeExams, users *fakeUsers) *fakeAttempts {
	return &fakeAttempts{attempts: map[string]*model.Attempt{}, exams: exams, users: users}
}

func (f *fakeAttempts) Create(ctx context.Context, a *model.Attempt) error {
	if _, err := f.exams.FindByID(ctx, a.ExamID); err != nil {
		return fmt.Errorf("%w: attempts_exam_id_fkey", util.ErrForeignKeyViolation)
	}
	if f.users != nil {
		if _, err := f.users.FindByID(ctx, a.UserID); err != nil {
			return fmt.Errorf("%w: attempts_user_id_fkey", util.ErrForeignKeyViolation)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = model.GenerateID()
	}
	a.CreatedAt = time.Now()
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeAttempts) FindByID(ctx context.Context, id string, include ...string) (*model.Attempt, error) {
	f.mu.Lock()
	a, ok := f.attempts[id]
	if !ok {
		f.mu.Unlock()
		return nil, util.ErrNotFound
	}
	cp := *a
	f.mu.Unlock()
	for _, rel := range include {
		if rel == "exam" {
			if e, err := f.exams.FindByID(ctx, cp.ExamID); err == nil {
				cp.Exam = e
			}
		}
	}
	return &cp, nil
}

func (f *fakeAttempts) FindMany(ctx context.Context, q repository.Query) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, a := range f.attempts {
		if matches(a, q.Where) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, q), nil
}

func (f *fakeAttempts) Count(ctx context.Context, where []repository.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.attempts {
		if matches(a, where) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttempts) MarkSubmitted(ctx context.Context, id string, at time.Time, score float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.SubmittedAt != nil {
		return false, nil
	}
	a.SubmittedAt = &at
	a.Score = &score
	return true, nil
}

func (f *fakeAttempts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attempts[id]; !ok {
		return util.ErrNotFound
	}
	delete(f.attempts, id)
	return nil
}

func (f *fakeAttempts) Aggregate(ctx context.Context, where []repository.Filter, spec repository.AggregateSpec) (repository.AggregateResult, error) {
	f.lastAgg = where
	return f.agg, nil
}

func (f *fakeAttempts) GroupBy(ctx context.Context, by []string, where []repository.Filter, spec repository.AggregateSpec, q repository.Query) ([]repository.AggregateResult, error) {
	return f.groups, nil
}

// matches understands the equality filters the services add.
func matches(a *model.Attempt, where []repository.Filter) bool {
	for _, w := range where {
		switch w.Field {
		case "userId":
			if a.UserID != w.Value {
				return false
			}
		case "examId":
			if a.ExamID != w.Value {
				return false
			}
		}
	}
	return true
}

func window[T any](list []T, q repository.Query) []T {
	if q.Skip > 0 {
		if q.Skip >= len(list) {
			return nil
		}
		list = list[q.Skip:]
	}
	if q.Take > 0 && len(list) > q.Take {
		list = list[:q.Take]
	}
	return list
}

type fakeCache struct {
	byID        map[string]*model.Exam
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{byID: map[string]*model.Exam{}}
}

func (c *fakeCache) GetByID(ctx context.Context, id string) (*model.Exam, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *fakeCache) GetByCode(ctx context.Context, code string) (*model.Exam, bool) {
	for _, e := range c.byID {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}

func (c *fakeCache) Set(ctx context.Context, exam *model.Exam) {
	c.byID[exam.ID] = exam
}

func (c *fakeCache) Invalidate(ctx context.Context, exam *model.Exam) {
	delete(c.byID, exam.ID)
	c.invalidated = append(c.invalidated, exam.ID)
}
