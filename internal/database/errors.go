package database

import (
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

const (
	codeUniqueViolation = "23505"
	codeSerialization   = "40001"
	codeDeadlock        = "40P01"
	codeLockNotAvail    = "55P03"
)

func ClassifyError(err error) ErrorClass {
	var pqErr *pq.Error
	if err == nil || !errors.As(err, &pqErr) {
		return ErrorClassPermanent
	}

	switch pqErr.Code {
	case codeSerialization:
		return ErrorClassSerialization
	case codeDeadlock:
		return ErrorClassDeadlock
	case codeLockNotAvail:
		return ErrorClassTransient
	default:
		return ErrorClassPermanent
	}
}

func IsRetryable(err error) bool {
	return ClassifyError(err) != ErrorClassPermanent
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUpdateNotFound  = errors.New("update not found")
	ErrAdminNotFound   = errors.New("admin not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
