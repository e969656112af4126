package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/session"
	"github.com/tachera/mlango/core/user"
	emailsvc "github.com/tachera/mlango/services/email"
	logsvc "github.com/tachera/mlango/services/logger"
	"github.com/tachera/mlango/storage/database"
	sqlxrepos "github.com/tachera/mlango/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	user.InitTokenGenerator(conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db))
	sqlxDB := sqlx.NewDb(db, "postgres")

	// set up services
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sqlxDB), emailsvc.NewConsoleService(conf), conf)
	centerSvc := center.NewService(sqlxrepos.NewCenterRepository(sqlxDB), usrSvc, nil /* cache */, logsvc.NopLogger{})

	// start CLI
	cli := commandLine{
		db:        db,
		usrSvc:    usrSvc,
		centerSvc: centerSvc,
		sessions:  session.NewStore(usrSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
