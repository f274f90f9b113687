package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/tokenstore"
	"github.com/jyotishdesk/backoffice/internal/workspace"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// SessionProvider provides operator tokens and session workspaces
type SessionProvider interface {
	Tokens() *tokenstore.Store
	Workspaces() *workspace.Manager
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	SessionProvider

	MigrateDB(track bool) error
	DropAll()

	// RecordOprLog stores one operation log entry
	RecordOprLog(operator, ip, action, desc string)
	// ListOprLogs returns a page of operation logs, newest first
	ListOprLogs(page, pageSize int, operator, action string) ([]domain.SysOprLog, int64, error)

	// Jobs lists the background jobs
	Jobs() []JobInfo
	// RunJobNow triggers a background job out of schedule
	RunJobNow(name string) error

	// Dashboard returns the last cached resource counts
	Dashboard() DashboardSnapshot
	// RefreshDashboard counts every resource now with the operator's token
	RefreshDashboard(ctx context.Context, operator string) DashboardSnapshot
}
