package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isUniqueViolation は一意制約違反かを返す
func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

// isForeignKeyViolation は外部キー制約違反かを返す
func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}
