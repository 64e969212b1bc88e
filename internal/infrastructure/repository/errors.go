package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domainRepo.ErrDuplicateKey
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepo.ErrDuplicateKey
	}
	return err
}
