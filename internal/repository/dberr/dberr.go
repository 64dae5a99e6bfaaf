// Package dberr translates driver errors into store errors.
package dberr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/nursery/internal/store"
)

const (
	pgUniqueViolation = "23505"
	mysqlDuplicateKey = 1062
)

// Map converts missing rows and unique key violations into store.ErrNotFound and
// store.ErrDuplicate. Other errors, lock conflicts included, pass through unchanged.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a duplicate key error from postgres or mysql.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateKey
	}
	return false
}

// RequireAffected turns a statement that touched no rows into store.ErrNotFound.
func RequireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Trace maps err and records it on span. Missing rows are not recorded as span errors.
func Trace(span trace.Span, err error) error {
	err = Map(err)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
