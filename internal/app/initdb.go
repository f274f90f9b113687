package app

import (
	"fmt"
	"path"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/domain"
)

// getDatabase opens the operation log database. Relative sqlite names are
// resolved against dataDir.
func getDatabase(cfg config.DBConfig, dataDir string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name, time.Local.String())
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		name := cfg.Name
		if name == "" {
			name = "backoffice.sqlite3"
		}
		if name != ":memory:" && !path.IsAbs(name) {
			name = path.Join(dataDir, name)
		}
		dialector = sqlite.Open(name)
	default:
		return nil, errors.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Type)
	}
	return db, nil
}

// RecordOprLog stores one operation log entry. Failures are only logged.
func (a *Application) RecordOprLog(operator, ip, action, desc string) {
	if a.gormDB == nil {
		return
	}
	if len(desc) > 1024 {
		desc = desc[:1024]
	}
	entry := domain.SysOprLog{
		OprName:   operator,
		OprIp:     ip,
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := a.gormDB.Create(&entry).Error; err != nil {
		zap.L().Error("failed to record operation log",
			zap.String("action", action),
			zap.String("operator", operator),
			zap.Error(err))
	}
}

// ListOprLogs returns a page of operation logs, newest first, and the total
// number matching the filters.
func (a *Application) ListOprLogs(page, pageSize int, operator, action string) ([]domain.SysOprLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := a.gormDB.Model(&domain.SysOprLog{})
	if operator != "" {
		query = query.Where("opr_name = ?", operator)
	}
	if action != "" {
		query = query.Where("opt_action LIKE ?", action+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count operation logs")
	}
	var rows []domain.SysOprLog
	err := query.Order("opt_time DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list operation logs")
	}
	return rows, total, nil
}

// PurgeOprLogs deletes entries older than days and returns how many went.
func (a *Application) PurgeOprLogs(days int) int64 {
	if days <= 0 {
		days = 365
	}
	res := a.gormDB.
		Where("opt_time < ?", time.Now().Add(-time.Hour*24*time.Duration(days))).
		Delete(&domain.SysOprLog{})
	if res.Error != nil {
		zap.L().Error("purge operation logs failed", zap.Error(res.Error))
		return 0
	}
	return res.RowsAffected
}
