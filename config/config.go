package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig admin web server configuration
type WebConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"` // session cookie signing key
}

// BackendConfig remote content backend
type BackendConfig struct {
	BaseURL  string `yaml:"base_url"`
	Timeout  int    `yaml:"timeout"` // seconds
	PageSize int    `yaml:"page_size"`
}

// DBConfig operation log database
type DBConfig struct {
	Type   string `yaml:"type"` // sqlite or postgres
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
	Passwd string `yaml:"passwd"`
	Debug  bool   `yaml:"debug"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// JobsConfig background job schedules
type JobsConfig struct {
	DashboardRefresh string `yaml:"dashboard_refresh"`
	WorkspaceIdle    int    `yaml:"workspace_idle"` // minutes
	OprLogDays       int    `yaml:"oprlog_days"`
	Workers          int    `yaml:"workers"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Backend  BackendConfig `yaml:"backend"`
	Database DBConfig      `yaml:"database"`
	Logger   LogConfig     `yaml:"logger"`
	Jobs     JobsConfig    `yaml:"jobs"`
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

// BackendTimeout returns the per-request timeout for the content backend.
func (c *AppConfig) BackendTimeout() time.Duration {
	if c.Backend.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Backend.Timeout) * time.Second
}

// WorkspaceIdle returns how long a session workspace may stay unused.
func (c *AppConfig) WorkspaceIdle() time.Duration {
	if c.Jobs.WorkspaceIdle <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Jobs.WorkspaceIdle) * time.Minute
}

// InitDirs creates the working directories.
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetDataDir(), c.GetLogDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "JyotishDesk",
		Location: "Asia/Kolkata",
		Workdir:  "/var/jyotishdesk",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-0731-4bf1-9c4a-jyotishdesk",
	},
	Backend: BackendConfig{
		BaseURL:  "http://127.0.0.1:8000/api",
		Timeout:  15,
		PageSize: 20,
	},
	Database: DBConfig{
		Type: "sqlite",
		Name: "backoffice.sqlite3",
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/jyotishdesk/logs/backoffice.log",
	},
	Jobs: JobsConfig{
		DashboardRefresh: "@every 5m",
		WorkspaceIdle:    30,
		OprLogDays:       365,
		Workers:          8,
	},
}

// LoadConfig reads the YAML file (when present) over the defaults and then
// applies BACKOFFICE_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile == "" {
		cfile = "backoffice.yml"
	}
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read config %s", cfile)
	}

	setEnvValue("BACKOFFICE_WORKDIR", &cfg.System.Workdir)
	setEnvValue("BACKOFFICE_LOCATION", &cfg.System.Location)
	setEnvBoolValue("BACKOFFICE_DEBUG", &cfg.System.Debug)

	setEnvValue("BACKOFFICE_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("BACKOFFICE_WEB_PORT", &cfg.Web.Port)
	setEnvValue("BACKOFFICE_WEB_SECRET", &cfg.Web.Secret)

	setEnvValue("BACKOFFICE_BACKEND_URL", &cfg.Backend.BaseURL)
	setEnvIntValue("BACKOFFICE_BACKEND_TIMEOUT", &cfg.Backend.Timeout)
	setEnvIntValue("BACKOFFICE_BACKEND_PAGE_SIZE", &cfg.Backend.PageSize)

	setEnvValue("BACKOFFICE_DB_TYPE", &cfg.Database.Type)
	setEnvValue("BACKOFFICE_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("BACKOFFICE_DB_PORT", &cfg.Database.Port)
	setEnvValue("BACKOFFICE_DB_NAME", &cfg.Database.Name)
	setEnvValue("BACKOFFICE_DB_USER", &cfg.Database.User)
	setEnvValue("BACKOFFICE_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("BACKOFFICE_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("BACKOFFICE_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("BACKOFFICE_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("BACKOFFICE_LOGGER_FILENAME", &cfg.Logger.Filename)

	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.PageSize <= 0 {
		cfg.Backend.PageSize = 20
	}
	return &cfg, nil
}

func setEnvValue(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}
