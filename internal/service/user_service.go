package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/util"
)

// UserService backs the admin user endpoints.
type UserService struct {
	UserRepo UserStore
}

func NewUserService(userRepo UserStore) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

// swagger:model CreateUserInput
type CreateUserInput struct {
	Name     string     `json:"name" binding:"required,max=100"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8,max=72"`
	Role     model.Role `json:"role"`
}

// UpdateUserInput changes only the fields that are set.
// swagger:model UpdateUserInput
type UpdateUserInput struct {
	Name     *string     `json:"name" binding:"omitempty,max=100"`
	Role     *model.Role `json:"role"`
	Password *string     `json:"password" binding:"omitempty,min=8,max=72"`
}

func (s *UserService) List(ctx context.Context, q repository.Query) (*Page[model.User], error) {
	return paginate[model.User](ctx, s.UserRepo, q, func(u *model.User) string { return u.ID })
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.UserRepo.FindByID(ctx, id, "attempts")
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", util.ErrInvalidInput, role)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalizeEmail(in.Email),
		Password: hash,
		Role:     role,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, util.ErrUniqueViolation) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", util.ErrInvalidInput, *in.Role)
		}
		fields["role"] = string(*in.Role)
	}
	if len(fields) == 0 && in.Password == nil {
		return nil, fmt.Errorf("%w: nothing to update", util.ErrInvalidInput)
	}

	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.UserRepo.SetPassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return s.UserRepo.FindByID(ctx, id)
	}
	return s.UserRepo.Update(ctx, id, fields)
}

// Delete fails with ErrForeignKeyViolation while the user still has attempts.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.UserRepo.Delete(ctx, id)
}

// CountByRole reports how many users hold each role. Roles without users are
// reported as zero.
func (s *UserService) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	groups, err := s.UserRepo.GroupBy(ctx, []string{"role"}, nil, repository.AggregateSpec{Count: true}, repository.Query{})
	if err != nil {
		return nil, err
	}
	counts := map[model.Role]int64{
		model.RoleStudent: 0,
		model.RoleAdmin:   0,
	}
	for _, g := range groups {
		counts[model.Role(asString(g["role"]))] = asInt64(g["_count"])
	}
	return counts, nil
}
