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

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
	sessionstore "github.com/trezcool/pta/storage/session"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Sessions   sessionstore.Store
		Metrics    *Metrics // optional

		SchoolSvc  *school.Service
		UserSvc    *user.Service
		ResetSvc   *user.PasswordReset
		ClassSvc   *class.Service
		ParentSvc  *parent.Service
		StudentSvc *student.Service
		PaymentSvc *payment.Service
		ExpenseSvc *expense.Service
		ReportSvc  *report.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
	}
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	auth := newAuthenticator(conf, s.deps.UserSvc, s.deps.Sessions)
	s.app.GET("/dashboard", s.dashboard, auth.redirectToLogin())

	g := s.app.Group("/api")
	jwt := auth.middleware()

	registerAuthAPI(g, jwt, authApi{
		auth:     auth,
		reset:    s.deps.ResetSvc,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	})
	registerSchoolAPI(g, jwt, s.deps.SchoolSvc, s.deps.Validate)
	refs := referenceChecker{
		users:    s.deps.UserSvc,
		classes:  s.deps.ClassSvc,
		parents:  s.deps.ParentSvc,
		students: s.deps.StudentSvc,
	}
	scope := parentScope{svc: s.deps.ParentSvc}
	registerClassAPI(g, jwt, s.deps.ClassSvc, refs, s.deps.Validate, s.deps.Logger)
	registerStudentAPI(g, jwt, s.deps.StudentSvc, refs, scope, s.deps.Validate, s.deps.Translator, s.deps.Logger)
	registerParentAPI(g, jwt, s.deps.ParentSvc, refs, s.deps.Validate, s.deps.Logger)
	registerPaymentAPI(g, jwt, paymentDeps{
		svc:      s.deps.PaymentSvc,
		schools:  s.deps.SchoolSvc,
		parents:  s.deps.ParentSvc,
		students: s.deps.StudentSvc,
		refs:     refs,
		scope:    scope,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	})
	registerExpenseAPI(g, jwt, s.deps.ExpenseSvc, refs, s.deps.Validate)
	registerUserAPI(g, jwt, s.deps.UserSvc, s.deps.Validate)
	registerReportAPI(g, jwt, s.deps.ReportSvc)
}

// Start listens until the server is shut down; listening errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *Server) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr, "app": s.deps.Conf.AppName})
}
