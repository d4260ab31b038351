// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registering an email that is already
// taken. Handlers translate this into "Already exist".
var ErrEmailExists = errors.New("email already exists")

// ErrFileNotFound is returned when no file record matches the lookup.
var ErrFileNotFound = errors.New("file not found")

// ErrConflict is returned when an insert collides with a unique key
// other than the user email, such as a reused blob path.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL duplicate-key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
