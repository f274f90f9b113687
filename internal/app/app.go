package app

import (
	"os"
	"path"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/resource"
	"github.com/jyotishdesk/backoffice/internal/tokenstore"
	"github.com/jyotishdesk/backoffice/internal/workspace"
	"github.com/jyotishdesk/backoffice/pkg/metrics"
)

type Application struct {
	appConfig  *config.AppConfig
	gormDB     *gorm.DB
	sched      *cron.Cron
	tokens     *tokenstore.Store
	workspaces *workspace.Manager
	bus        EventBus.Bus
	pool       *ants.Pool
	dashboard  *dashboardCache
	jobs       []*job
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ SessionProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig, dashboard: &dashboardCache{}}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Tokens() *tokenstore.Store {
	return a.tokens
}

func (a *Application) Workspaces() *workspace.Manager {
	return a.workspaces
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

func (a *Application) Init(cfg *config.AppConfig) error {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := cfg.InitDirs(); err != nil {
		return err
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			return errors.Wrap(err, "build logger")
		}
	}

	zap.ReplaceGlobals(logger)

	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	db, err := getDatabase(cfg.Database, cfg.GetDataDir())
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	tokens, err := tokenstore.Open(path.Join(cfg.GetDataDir(), "tokens.db"))
	if err != nil {
		return err
	}

	if err := a.Setup(db, tokens); err != nil {
		return err
	}
	a.initJob()
	return nil
}

// Setup migrates db and wires the event bus, worker pool and session
// workspaces around the given token store. Init calls it; tests call it
// directly with a temporary database.
func (a *Application) Setup(db *gorm.DB, tokens *tokenstore.Store) error {
	a.gormDB = db
	a.tokens = tokens
	a.jobs = a.jobTable()
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	workers := a.appConfig.Jobs.Workers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		zap.S().Errorf("worker panic: %v", p)
	}))
	if err != nil {
		return errors.Wrap(err, "create worker pool")
	}
	a.pool = pool

	a.bus = EventBus.New()
	for name := range domain.ResourcePaths {
		if err := a.bus.SubscribeAsync(resource.Topic(name), a.onStoreEvent, false); err != nil {
			return errors.Wrapf(err, "subscribe %s", name)
		}
	}

	a.workspaces = workspace.NewManager(workspace.Options{
		BaseURL: a.appConfig.Backend.BaseURL,
		Timeout: a.appConfig.BackendTimeout(),
		Bus:     a.bus,
		Tokens: func(operator string) resource.TokenSource {
			return tokens.Source(operator)
		},
	})
	return nil
}

// onStoreEvent counts store transitions and logs failures.
func (a *Application) onStoreEvent(ev resource.Event) {
	metrics.Incr("store_transitions", "resource", ev.Resource, "op", string(ev.Op), "phase", string(ev.Phase))
	if ev.Phase == resource.PhaseRejected {
		zap.L().Warn("store operation rejected",
			zap.String("resource", ev.Resource),
			zap.String("op", string(ev.Op)),
			zap.String("id", ev.ID),
			zap.String("error", ev.Error))
	}
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return err
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.workspaces != nil {
		a.workspaces.CloseAll()
	}
	if a.bus != nil {
		a.bus.WaitAsync()
	}
	if a.pool != nil {
		a.pool.Release()
	}
	if a.tokens != nil {
		_ = a.tokens.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
