package main

import (
	"database/sql"

	"github.com/trezcool/schooldesk/storage/database"
)

var runMigrationFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	var db *sql.DB
	if cli.db != nil {
		db = cli.db.DB
	}
	return runMigrationFunc(args[0], db, args[1:]...)
}
