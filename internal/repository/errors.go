package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the MySQL error number for a unique constraint
// violation.
const mysqlDuplicateEntry = 1062

// IsDuplicateEntry reports whether an insert lost a race on a unique
// constraint. Callers resolve it by re-querying the winning row.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
