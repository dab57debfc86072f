package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trinhly333/worksheet/pkg/pagination"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
)

func hasSQLState(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), code)
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	return hasSQLState(err, sqlStateUniqueViolation)
}

func isCheckViolation(err error) bool {
	return hasSQLState(err, sqlStateCheckViolation)
}

// pageBounds turns page/per-page into LIMIT and OFFSET.
func pageBounds(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	if perPage > pagination.MaxPerPage {
		perPage = pagination.MaxPerPage
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}
	return perPage, offset
}
