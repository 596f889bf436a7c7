package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func parseUUID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return u.String(), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func pgInsertErr(what string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
