package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/shelf-inventory/internal/domain"
)

// Códigos SQLSTATE que traducen los adaptadores.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeInvalidText         = "22P02"
)

// mapError traduce errores del driver a errores de dominio, conservando el original como causa.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrProductInUse)
		case pgErr.Code == codeCheckViolation, pgErr.Code == codeInvalidText:
			return domain.Wrap(domain.ErrInvalidInput, "value rejected by the store", err)
		case pgErr.Code == codeSerialization, pgErr.Code == codeDeadlock:
			return fmt.Errorf("%s: %w", op, domain.ErrConflict)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return domain.Wrap(domain.ErrStorageUnavailable, "database is unavailable", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if pgconn.SafeToRetry(err) || isConnectError(err) {
		return domain.Wrap(domain.ErrStorageUnavailable, "database is unavailable", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// validID indica si id se puede enlazar a una columna UUID.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
