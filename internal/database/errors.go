package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062
	mysqlDeadlock       = 1213
	mysqlNoReferenced   = 1452
)

func mysqlNumber(err error) (uint16, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number, true
	}
	return 0, false
}

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

// IsUniqueViolation reports whether err was raised by a UNIQUE or PRIMARY
// KEY constraint.
func IsUniqueViolation(err error) bool {
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlDuplicateEntry
	}
	if c, ok := sqliteCode(err); ok {
		return c == sqlite3.SQLITE_CONSTRAINT_UNIQUE || c == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsForeignKeyViolation reports whether err was raised because a referenced
// row does not exist (for example a session deleted concurrently).
func IsForeignKeyViolation(err error) bool {
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlNoReferenced
	}
	if c, ok := sqliteCode(err); ok {
		return c == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// IsDeadlock reports whether the transaction lost a lock race and was
// rolled back by the server.
func IsDeadlock(err error) bool {
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlDeadlock
	}
	if c, ok := sqliteCode(err); ok {
		return c&0xff == sqlite3.SQLITE_BUSY || c&0xff == sqlite3.SQLITE_LOCKED
	}
	return false
}
