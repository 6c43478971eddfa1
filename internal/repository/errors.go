// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish failure scenarios without looking at
// driver-specific errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// user.  The two cases are indistinguishable to callers; handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists and ErrEmailExists report a unique-key violation on the
// users table.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// ErrConflict is returned when a write collides with a unique key that is
// not covered by a more specific sentinel.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateErr recognises unique-key violations from both drivers:
// MySQL error 1062 and SQLite "UNIQUE constraint failed".
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// duplicateKey names the unique key a duplicate error fired on: the text
// after "for key" on MySQL, the column list on SQLite.  The offending value
// is never part of the result.
func duplicateKey(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if i := strings.LastIndex(me.Message, " for key "); i >= 0 {
			return strings.Trim(me.Message[i+len(" for key "):], "' ")
		}
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(strings.ToLower(msg), "unique constraint failed:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("unique constraint failed:"):])
	}
	return ""
}

// duplicateOnEmail reports whether a users insert collided on the email key
// (uq_users_email on MySQL, users.email on SQLite).
func duplicateOnEmail(err error) bool {
	key := duplicateKey(err)
	return strings.HasSuffix(key, "uq_users_email") || strings.HasPrefix(key, "users.email")
}
