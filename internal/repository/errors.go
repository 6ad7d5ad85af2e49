// Package repository contains the MySQL data access used by the service.
// Repositories translate missing rows and constraint violations into the
// sentinel errors of the domain packages so handlers can map them to HTTP
// statuses without knowing about SQL.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrSeatNotFound is returned when a seat status update matches no row.
var ErrSeatNotFound = errors.New("seat not found")

// ErrConflict is returned when a write cannot proceed because of existing
// state, such as a duplicate key.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
