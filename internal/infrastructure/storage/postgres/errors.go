package postgres

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"customfields/internal/core/apperror"
)

// PostgreSQL error codes mapped to the AppError taxonomy.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Constraint names declared in schema.sql.
const (
	constraintDefinitionsPKey  = "custom_fields_pkey"
	constraintDefinitionsRefID = "custom_fields_tenant_ref_id_key"
	constraintDefinitionsOrder = "custom_fields_tenant_sort_order_key"
)

// MapError converts driver errors into AppErrors where the caller can act on them.
// Anything else is wrapped with op and left for the service to treat as internal.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return conflictFor(pgErr).WithCause(err)
		case codeForeignKeyViolation:
			return apperror.NewConflict("Referenced row does not exist or is still in use").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case codeSerializationFailure, codeDeadlockDetected:
			return apperror.NewConflict("Concurrent modification, please retry").WithCause(err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if IsUnavailable(err) {
		return apperror.NewStoreUnavailable(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUnavailable reports whether err means the database could not be reached.
func IsUnavailable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func conflictFor(pgErr *pgconn.PgError) *apperror.AppError {
	switch pgErr.ConstraintName {
	case constraintDefinitionsPKey:
		return apperror.NewConflict("Custom field with this id already exists").
			WithDetail("attribute", "id")
	case constraintDefinitionsRefID:
		return apperror.NewConflict("Custom field with this refId already exists").
			WithDetail("attribute", "refId")
	case constraintDefinitionsOrder:
		return apperror.NewConflict("Custom field order must be unique").
			WithDetail("attribute", "order")
	}
	return apperror.NewConflict("Duplicate entry").WithDetail("constraint", pgErr.ConstraintName)
}
