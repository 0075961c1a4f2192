package client

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation — код SQLSTATE нарушения уникального ограничения.
const uniqueViolation = "23505"

// IsUniqueViolation сообщает, вызвана ли ошибка нарушением UNIQUE.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ConstraintName возвращает имя нарушенного ограничения, если оно известно.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
