package adminapi

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

// DBMSTableInfo represents table metadata
type DBMSTableInfo struct {
	Name     string `json:"name"`
	Exists   bool   `json:"exists"`
	RowCount int64  `json:"row_count"`
}

// DBMSServerInfo describes the operation log database
type DBMSServerInfo struct {
	DatabaseType    string          `json:"database_type"`
	DatabaseVersion string          `json:"database_version"`
	DatabaseSize    string          `json:"database_size,omitempty"`
	ServerTime      string          `json:"server_time"`
	Tables          []DBMSTableInfo `json:"tables"`
}

// registerDbmsRoutes registers the database status route
func registerDbmsRoutes(srv *webserver.Server) {
	srv.ApiGET("/system/database", dbmsGetServerInfo)
}

// dbmsTables reports the tables the back-office migrates and their row counts.
func dbmsTables(db *gorm.DB) []DBMSTableInfo {
	tables := make([]DBMSTableInfo, 0, len(domain.Tables))
	for _, model := range domain.Tables {
		name := tableName(db, model)
		info := DBMSTableInfo{Name: name, Exists: db.Migrator().HasTable(model)}
		if info.Exists {
			db.Model(model).Count(&info.RowCount)
		}
		tables = append(tables, info)
	}
	return tables
}

func tableName(db *gorm.DB, model interface{}) string {
	if t, ok := model.(schema.Tabler); ok {
		return t.TableName()
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}

// dbmsGetServerInfo returns database details and table row counts
// @Summary get the operation log database status
// @Tags System
// @Success 200 {object} DBMSServerInfo
// @Router /api/v1/system/database [get]
func dbmsGetServerInfo(c echo.Context) error {
	db := GetDB(c)
	dbType := db.Dialector.Name()

	info := DBMSServerInfo{
		DatabaseType: dbType,
		ServerTime:   time.Now().Format(timeLayout),
		Tables:       dbmsTables(db),
	}

	switch dbType {
	case "postgres":
		var version, dbSize string
		db.Raw("SELECT version()").Scan(&version)
		db.Raw("SELECT pg_size_pretty(pg_database_size(current_database()))").Scan(&dbSize)
		info.DatabaseVersion = version
		info.DatabaseSize = dbSize

	case "sqlite":
		var version string
		db.Raw("SELECT sqlite_version()").Scan(&version)
		info.DatabaseVersion = "SQLite " + version

		// page_count * page_size
		var pageCount, pageSize int64
		db.Raw("PRAGMA page_count").Scan(&pageCount)
		db.Raw("PRAGMA page_size").Scan(&pageSize)
		info.DatabaseSize = formatSize(pageCount * pageSize)
	}

	return ok(c, info)
}

func formatSize(sizeBytes int64) string {
	switch {
	case sizeBytes < 1024:
		return fmt.Sprintf("%d B", sizeBytes)
	case sizeBytes < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(sizeBytes)/1024)
	case sizeBytes < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", float64(sizeBytes)/(1024*1024))
	}
	return fmt.Sprintf("%.2f GB", float64(sizeBytes)/(1024*1024*1024))
}
