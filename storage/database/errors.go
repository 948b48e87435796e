package database

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/launchpad/core"
)

// Postgres error codes meaning the schema is behind the code (migrations not applied yet).
const (
	pqUndefinedTable  = pq.ErrorCode("42P01")
	pqUndefinedColumn = pq.ErrorCode("42703")
)

// TrapErr classifies a store error: missing relations/columns become *core.SchemaMissingError,
// anything else is wrapped with msg.
func TrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		switch pqErr.Code {
		case pqUndefinedTable, pqUndefinedColumn:
			return errors.Wrap(core.NewSchemaMissingError(pqErr), msg)
		}
	}
	return errors.Wrap(err, msg)
}
