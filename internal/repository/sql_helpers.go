package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chat_errors "freelance-chat/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// isDataException matches SQLSTATE class 22: values the column type cannot hold.
func isDataException(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "22")
	}
	return false
}

// translateError maps driver errors onto the chat_errors taxonomy.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, chat_errors.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, chat_errors.ErrAlreadyExists)
	case isForeignKeyViolation(err), isDataException(err):
		return fmt.Errorf("%s: %w", op, chat_errors.ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %w: %w", op, chat_errors.ErrPersistence, err)
	}
}
