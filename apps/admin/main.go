package main

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pta/assets"
	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/user"
	logsvc "github.com/trezcool/pta/services/logger"
	"github.com/trezcool/pta/storage/database"
	sqlxrepos "github.com/trezcool/pta/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	conf.Server.DisableReqLogs = true

	zl := logsvc.NewZerolog(os.Stderr, conf).With().Str("component", "ADMIN").Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	repos := sqlxrepos.NewRepositories(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	if err = user.LoadCommonPasswords(assets.FS, assets.CommonPasswordsGz); err != nil {
		logger.Warn("loading common passwords", err)
	}

	// start CLI
	cli := commandLine{
		db:        db.DB,
		schoolSvc: school.NewService(repos.School),
		usrSvc:    user.NewService(repos.User),
		validate:  validate,
		out:       os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}
