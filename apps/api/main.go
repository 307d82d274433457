package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/schooldesk/apps/api/echo"
	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/access"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/auth"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/dashboard"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
	emailsvc "github.com/trezcool/schooldesk/services/email"
	logsvc "github.com/trezcool/schooldesk/services/logger"
	"github.com/trezcool/schooldesk/storage/database"
	inmemdb "github.com/trezcool/schooldesk/storage/database/inmem"
	sqlxrepos "github.com/trezcool/schooldesk/storage/database/sqlx"
	redisstore "github.com/trezcool/schooldesk/storage/session/redis"
)

type repositories struct {
	users      user.Repository
	classes    classroom.Repository
	courses    course.Repository
	attendance attendance.Repository
	fees       fee.Repository
	materials  material.Repository
	db         core.Pinger
	close      func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	repos, err := setUpStorage(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	sessStore := setUpSessions(conf, logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "", 0))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users, mailSvc, conf)
	authSvc := auth.NewService(sessStore, usrSvc, conf)
	classSvc := classroom.NewService(repos.classes)
	courseSvc := course.NewService(repos.courses, classSvc)
	attSvc := attendance.NewService(repos.attendance, usrSvc)
	feeSvc := fee.NewService(repos.fees, classSvc, usrSvc)
	matSvc := material.NewService(repos.materials, courseSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	fee.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Guard:         access.NewGuard(usrSvc),
			AuthSvc:       authSvc,
			UserSvc:       usrSvc,
			ClassSvc:      classSvc,
			CourseSvc:     courseSvc,
			AttendanceSvc: attSvc,
			FeeSvc:        feeSvc,
			MaterialSvc:   matSvc,
			DashboardSvc:  dashboard.NewService(usrSvc, courseSvc, attSvc, feeSvc, matSvc),
			Validate:      validate,
			Translator:    translator,
			Pingers: map[string]core.Pinger{
				"database": repos.db,
				"sessions": sessStore,
			},
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage opens the configured storage engine; postgres databases are created & migrated first.
func setUpStorage(ctx context.Context, conf *core.Config) (repositories, error) {
	switch conf.Database.Engine {
	case "memory":
		db := inmemdb.Open()
		return repositories{
			users:      inmemdb.NewUserRepository(db),
			classes:    inmemdb.NewClassRepository(db),
			courses:    inmemdb.NewCourseRepository(db),
			attendance: inmemdb.NewAttendanceRepository(db),
			fees:       inmemdb.NewFeeRepository(db),
			materials:  inmemdb.NewMaterialRepository(db),
			db:         db,
			close:      func() error { return nil },
		}, nil

	case "postgres":
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return repositories{}, err
		}
		sqlDB, err := database.Open(ctx, conf)
		if err != nil {
			return repositories{}, err
		}
		if err = database.Migrate(sqlDB.DB); err != nil {
			_ = sqlDB.Close()
			return repositories{}, err
		}
		db := sqlxrepos.Wrap(sqlDB)
		return repositories{
			users:      sqlxrepos.NewUserRepository(db),
			classes:    sqlxrepos.NewClassRepository(db),
			courses:    sqlxrepos.NewCourseRepository(db),
			attendance: sqlxrepos.NewAttendanceRepository(db),
			fees:       sqlxrepos.NewFeeRepository(db),
			materials:  sqlxrepos.NewMaterialRepository(db),
			db:         db,
			close:      sqlDB.Close,
		}, nil
	}
	return repositories{}, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}

func setUpSessions(conf *core.Config, logger core.Logger) auth.Store {
	if conf.Session.Store == "redis" {
		return redisstore.NewStore(redisstore.NewClient(conf))
	}
	if !conf.Debug {
		logger.Warn("sessions are kept in memory and lost on restart")
	}
	return inmemdb.NewSessionStore()
}
