package main

import (
	"github.com/tachera/mlango/storage/database"
)

var runMigrationFunc = database.RunMigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	return runMigrationFunc(cli.db, command, args[1:]...)
}
