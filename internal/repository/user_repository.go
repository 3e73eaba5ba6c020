package repository

import (
	"context"
	"strings"

	"testcracker/internal/model"
	"testcracker/internal/util"

	"gorm.io/gorm"
)

var userSchema = Schema{
	Fields: map[string]Field{
		"id":        {Column: "id", Kind: KindUUID},
		"email":     {Column: "email", Kind: KindString},
		"name":      {Column: "name", Kind: KindString},
		"role":      {Column: "role", Kind: KindString},
		"createdAt": {Column: "created_at", Kind: KindTime},
		"updatedAt": {Column: "updated_at", Kind: KindTime},
	},
	Relations: map[string]string{
		"attempts": "Attempts",
	},
}

type UserRepository struct {
	*Store[model.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Store: NewStore[model.User](db, userSchema)}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.FindFirst(ctx, Query{
		Where: []Filter{{Field: "email", Op: OpEquals, Value: strings.ToLower(email)}},
	})
}

// SetPassword stores an already hashed password. The column is not part of the
// public schema, so it cannot be reached through Update.
func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{ID: id}).Update("password", hash)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
