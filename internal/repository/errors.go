// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEventNotFound is returned when no event row matches the given id.
// Handlers should translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrAttendeeNotFound is returned when an (event, user) availability row
// does not exist.
var ErrAttendeeNotFound = errors.New("attendee not found")

// ErrCacheMiss is returned when no unexpired cached search result exists
// for a (location, movie) key.
var ErrCacheMiss = errors.New("cache miss")

// ErrConflict is returned when an insert collides with an existing row,
// such as submitting availability twice for the same attendee. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
