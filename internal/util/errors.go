package util

import "errors"

var (
	ErrNotFound                = errors.New("record not found")
	ErrUniqueViolation         = errors.New("unique constraint violated")
	ErrForeignKeyViolation     = errors.New("foreign key constraint violated")
	ErrInvalidQuery            = errors.New("invalid query")
	ErrInvalidInput            = errors.New("invalid input")
	ErrEmailRegistered         = errors.New("email already registered")
	ErrExamCodeTaken           = errors.New("exam code already exists")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrInvalidScore            = errors.New("score out of range")
)
