package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrMediaMismatch = errors.New("media assets missing or owned by another user")
)

const uniqueViolation = "23505"

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}
