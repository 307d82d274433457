package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

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
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		Guard         *access.Guard
		AuthSvc       *auth.Service
		UserSvc       *user.Service
		ClassSvc      *classroom.Service
		CourseSvc     *course.Service
		AttendanceSvc *attendance.Service
		FeeSvc        *fee.Service
		MaterialSvc   *material.Service
		DashboardSvc  *dashboard.Service

		Validate   *validator.Validate
		Translator ut.Translator

		// Pingers are checked by /healthz, keyed by the name reported on failure.
		Pingers map[string]core.Pinger
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.Secure())
	s.app.Use(s.metrics.middleware)
	s.app.Use(guardMiddleware(s.deps, s.metrics))

	s.app.GET("/", home)
	s.app.GET("/healthz", s.healthz)
	s.app.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	registerAuthAPI(s.app.Group(authGroupPath), s.deps)
	registerAdminAPI(s.app.Group(adminGroupPath), s.deps)
	registerPortalAPI(s.app.Group(portalGroupPath), s.deps)
}

func (s *Server) Start() {
	conf := s.deps.Conf
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	srv := &http.Server{
		Addr:         conf.Server.Address,
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
	}
	s.deps.Logger.Info("API listening on " + conf.Server.Address)
	if err := s.app.StartServer(srv); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

// Errors receives the error that stopped the server from listening.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives OS interrupts as well as internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // a shutdown is already pending
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to SchoolDesk API!")
}

func (s *Server) healthz(ctx echo.Context) error {
	status := echo.Map{}
	healthy := true
	for name, p := range s.deps.Pingers {
		if err := p.Ping(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("healthz: "+name+" is down", err)
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return ctx.JSON(http.StatusServiceUnavailable, status)
	}
	return ctx.JSON(http.StatusOK, status)
}
