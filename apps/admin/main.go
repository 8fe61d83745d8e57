package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
	logsvc "github.com/mustafamuse/irshad-center-sub008/services/logger"
	"github.com/mustafamuse/irshad-center-sub008/storage/database"
	sqlxrepos "github.com/mustafamuse/irshad-center-sub008/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zl, err := logsvc.NewZapLogger(conf.Log.Level, conf.Log.Format, "admin")
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)

	tx := sqlxrepos.NewTransactor(db)
	persons := sqlxrepos.NewPersonRepository(db)
	profiles := sqlxrepos.NewProfileRepository(db)

	personSvc := person.NewService(persons)
	profileSvc := profile.NewService(tx, profiles)
	detector := duplicate.NewDetector(personSvc, profileSvc)
	linker := sibling.NewLinker(sqlxrepos.NewSiblingRepository(db), persons, profiles)

	// start CLI
	cli := commandLine{
		ctx:      context.Background(),
		out:      os.Stdout,
		db:       db,
		detector: detector,
		linker:   linker,
		profiles: profileSvc,
		registrar: registration.NewService(conf.Registration, registration.Deps{
			DB:         tx,
			Persons:    personSvc,
			Profiles:   profileSvc,
			Detector:   detector,
			Linker:     linker,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
		}),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
