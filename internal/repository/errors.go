package repository

import (
	"errors"
	"fmt"

	"testcracker/internal/util"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes.
const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

// translateError maps driver and gorm errors onto the util sentinels. The
// constraint name is kept in the message.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", util.ErrUniqueViolation, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", util.ErrForeignKeyViolation, pgErr.ConstraintName)
		case invalidTextRepresentation:
			return fmt.Errorf("%w: %s", util.ErrInvalidInput, pgErr.Message)
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return util.ErrUniqueViolation
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return util.ErrForeignKeyViolation
	}
	return err
}
