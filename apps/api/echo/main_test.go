package echoapi_test

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

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
	dummydb "github.com/trezcool/pta/storage/database/dummy"
	sessionstore "github.com/trezcool/pta/storage/session"
)

var (
	conf    *core.Config
	app     *echoapi.Server
	repos   database.Repositories
	mailSvc *emailsvc.ConsoleServiceMock
	metrics *prometheus.Registry

	// profiles (schools & users) and school data live in separate stores
	// so that the data can go down while sessions keep working.
	authDB *dummydb.DB
	dataDB *dummydb.DB
)

func TestMain(m *testing.M) {
	var err error
	conf = core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(io.Discard, conf), conf)

	// set up DBs & repos
	if authDB, err = dummydb.Open(); err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	if dataDB, err = dummydb.Open(); err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	authRepos := dummydb.NewRepositories(authDB)
	dataRepos := dummydb.NewRepositories(dataDB)
	repos = dataRepos
	repos.School = authRepos.School
	repos.User = authRepos.User

	// set up validators
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	expense.InitValidators(validate, translator)
	if err = user.LoadCommonPasswords(assets.FS, assets.CommonPasswordsGz); err != nil {
		fmt.Printf("user.LoadCommonPasswords(): %v", err)
		os.Exit(1)
	}

	// set up services
	tmpls, err := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf)
	if err != nil {
		fmt.Printf("core.ParseEmailTemplates(): %v", err)
		os.Exit(1)
	}
	mailSvc = emailsvc.NewConsoleServiceMock(tmpls, logger, conf)
	metrics = prometheus.NewRegistry()
	userSvc := user.NewService(repos.User)

	// set up server
	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Sessions:   sessionstore.NewMemoryStore(),
		Metrics:    echoapi.NewMetrics(metrics, conf.AppName),
		SchoolSvc:  school.NewService(repos.School),
		UserSvc:    userSvc,
		ResetSvc:   user.NewPasswordReset(userSvc, mailSvc, conf),
		ClassSvc:   class.NewService(repos.Class),
		ParentSvc:  parent.NewService(repos.Parent),
		StudentSvc: student.NewService(repos.Student),
		PaymentSvc: payment.NewService(repos.Payment, mailSvc),
		ExpenseSvc: expense.NewService(repos.Expense),
		ReportSvc:  report.NewService(repos.Report),
	})

	os.Exit(m.Run())
}
