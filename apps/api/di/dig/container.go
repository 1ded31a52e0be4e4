package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/pta/apps/api/echo"
	"github.com/trezcool/pta/assets"
	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
	emailsvc "github.com/trezcool/pta/services/email"
	logsvc "github.com/trezcool/pta/services/logger"
	"github.com/trezcool/pta/storage/database"
	sqlxrepos "github.com/trezcool/pta/storage/database/sqlx"
	sessionstore "github.com/trezcool/pta/storage/session"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Sessions   sessionstore.Store
	Metrics    *echoapi.Metrics

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

func newLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewZerolog(os.Stdout, conf).With().Str("component", "API").Logger()
	return logsvc.NewRollbarLogger(zl, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewZerolog(os.Stdout, conf).With().Str("component", "DB").Logger()
	return logsvc.NewRollbarLogger(zl, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

// newSessionStore uses Redis when configured; sessions are then revoked across instances.
func newSessionStore(conf *core.Config, logger core.Logger) sessionstore.Store {
	if conf.Redis.Addr == "" {
		logger.Warn("no redis configured: revoked sessions are only known to this instance")
		return sessionstore.NewMemoryStore()
	}
	client, err := sessionstore.OpenRedis(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
	}
	return sessionstore.NewRedisStore(client)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	tmpls, err := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	return emailsvc.New(tmpls, logger, conf)
}

func newMetrics(conf *core.Config) (*prometheus.Registry, *echoapi.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, echoapi.NewMetrics(reg, conf.AppName)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Sessions:   p.Sessions,
		Metrics:    p.Metrics,
		SchoolSvc:  p.SchoolSvc,
		UserSvc:    p.UserSvc,
		ResetSvc:   p.ResetSvc,
		ClassSvc:   p.ClassSvc,
		ParentSvc:  p.ParentSvc,
		StudentSvc: p.StudentSvc,
		PaymentSvc: p.PaymentSvc,
		ExpenseSvc: p.ExpenseSvc,
		ReportSvc:  p.ReportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewRepositories))
	must(c.Provide(newSessionStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newMetrics))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	must(c.Provide(func(r database.Repositories) *school.Service { return school.NewService(r.School) }))
	must(c.Provide(func(r database.Repositories) *user.Service { return user.NewService(r.User) }))
	must(c.Provide(user.NewPasswordReset))
	must(c.Provide(func(r database.Repositories) *class.Service { return class.NewService(r.Class) }))
	must(c.Provide(func(r database.Repositories) *parent.Service { return parent.NewService(r.Parent) }))
	must(c.Provide(func(r database.Repositories) *student.Service { return student.NewService(r.Student) }))
	must(c.Provide(func(r database.Repositories, mailSvc core.EmailService) *payment.Service {
		return payment.NewService(r.Payment, mailSvc)
	}))
	must(c.Provide(func(r database.Repositories) *expense.Service { return expense.NewService(r.Expense) }))
	must(c.Provide(func(r database.Repositories) *report.Service { return report.NewService(r.Report) }))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
