// Package migrate holds the catalog schema migrations.
package migrate

import (
	"github.com/go-pg/migrations"
	"github.com/sirupsen/logrus"
)

var log logrus.FieldLogger = logrus.WithField("module", "migrate")

// SetLogger replaces the logger used while migrating.
func SetLogger(l logrus.FieldLogger) {
	log = l.WithField("module", "migrate")
}

// Migrate runs a go-pg/migrations command: init, up, down, reset, version
// or set_version. No arguments means up.
func Migrate(db migrations.DB, args ...string) (oldVersion, newVersion int64, err error) {
	oldVersion, newVersion, err = migrations.Run(db, args...)
	if err != nil {
		return oldVersion, newVersion, err
	}
	if newVersion != oldVersion {
		log.Infof("migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Infof("version is %d", oldVersion)
	}
	return oldVersion, newVersion, nil
}

// run returns a migration step executing queries in order. Versions are
// taken from the registering file name, so every migration file calls
// migrations.Register itself.
func run(name string, queries ...string) func(migrations.DB) error {
	return func(db migrations.DB) error {
		log.WithField("migration", name).Info("running")
		for _, q := range queries {
			if _, err := db.Exec(q); err != nil {
				return err
			}
		}
		return nil
	}
}
