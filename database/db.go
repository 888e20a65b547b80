// Package database stores the catalog of imported DICOM files in PostgreSQL.
package database

import (
	"errors"

	"github.com/go-pg/pg"
	"github.com/spf13/viper"
)

// ErrNotFound is returned when a catalog record does not exist.
var ErrNotFound = errors.New("not found")

// Configured reports whether a database connection is configured.
func Configured() bool {
	return viper.GetString("database_url") != "" || viper.GetString("database_addr") != ""
}

// DBConn returns a PostgreSQL connection configured by viper, either from
// database_url or from database_addr, database_user, database_password and
// database_database.
func DBConn() (*pg.DB, error) {
	opts, err := options()
	if err != nil {
		return nil, err
	}
	db := pg.Connect(opts)
	if err := checkConn(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func options() (*pg.Options, error) {
	if url := viper.GetString("database_url"); url != "" {
		return pg.ParseURL(url)
	}
	return &pg.Options{
		Addr:     viper.GetString("database_addr"),
		User:     viper.GetString("database_user"),
		Password: viper.GetString("database_password"),
		Database: viper.GetString("database_database"),
	}, nil
}

func checkConn(db *pg.DB) error {
	var n int
	_, err := db.QueryOne(pg.Scan(&n), "SELECT 1")
	return err
}

func notFound(err error) error {
	if errors.Is(err, pg.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
