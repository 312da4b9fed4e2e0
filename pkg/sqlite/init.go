// Package sqlite registers the "sqlite3_vec" driver: mattn/go-sqlite3 with
// the sqlite-vec extension loaded on every connection.
package sqlite

import (
	"database/sql"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver name to pass to sql.Open.
const DriverName = "sqlite3_vec"

func init() {
	vec.Auto()

	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA foreign_keys = ON", nil)
			return err
		},
	})
}

// SerializeFloat32 encodes a vector in the little-endian layout vec0 expects.
func SerializeFloat32(v []float32) ([]byte, error) {
	return vec.SerializeFloat32(v)
}
