package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/mustafamuse/irshad-center-sub008/apps/api/echo"
	"github.com/mustafamuse/irshad-center-sub008/assets"
	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
	emailsvc "github.com/mustafamuse/irshad-center-sub008/services/email"
	logsvc "github.com/mustafamuse/irshad-center-sub008/services/logger"
	"github.com/mustafamuse/irshad-center-sub008/storage/database"
	dummydb "github.com/mustafamuse/irshad-center-sub008/storage/database/dummy"
	sqlxrepos "github.com/mustafamuse/irshad-center-sub008/storage/database/sqlx"
)

type stores struct {
	tx       core.Transactor
	persons  person.Repository
	profiles profile.Repository
	siblings sibling.Repository
	close    func() error
}

func startManual(inMemory bool) {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	zl, err := logsvc.NewZapLogger(conf.Log.Level, conf.Log.Format, "api")
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)

	// set up DB
	var st stores
	if inMemory {
		st, err = setUpMemory()
	} else {
		st, err = setUpDB(conf)
	}
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = st.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf.Debug); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	personSvc := person.NewService(st.persons)
	profileSvc := profile.NewService(st.tx, st.profiles)
	detector := duplicate.NewDetector(personSvc, profileSvc)
	linker := sibling.NewLinker(st.siblings, st.persons, st.profiles)
	registrationSvc := registration.NewService(conf.Registration, registration.Deps{
		DB:         st.tx,
		Persons:    personSvc,
		Profiles:   profileSvc,
		Detector:   detector,
		Linker:     linker,
		Mailer:     mailSvc,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Registrar:  registrationSvc,
			Detector:   detector,
			ProfileSvc: profileSvc,
			Linker:     linker,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (stores, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return stores{}, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return stores{}, err
	}

	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		tx:       sqlxrepos.NewTransactor(db),
		persons:  sqlxrepos.NewPersonRepository(db),
		profiles: sqlxrepos.NewProfileRepository(db),
		siblings: sqlxrepos.NewSiblingRepository(db),
		close:    db.Close,
	}, nil
}

func setUpMemory() (stores, error) {
	db, err := dummydb.Open()
	if err != nil {
		return stores{}, err
	}
	return stores{
		tx:       dummydb.NewTransactor(db),
		persons:  dummydb.NewPersonRepository(db),
		profiles: dummydb.NewProfileRepository(db),
		siblings: dummydb.NewSiblingRepository(db),
		close:    func() error { return nil },
	}, nil
}
