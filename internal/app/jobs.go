package app

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"

	"github.com/jyotishdesk/backoffice/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// tokenExpiryWarning is how far ahead the hourly job warns about tokens.
const tokenExpiryWarning = 24 * time.Hour

// ErrJobNotFound is returned when triggering a job that does not exist.
var ErrJobNotFound = errors.New("job not found")

// JobInfo describes one background job.
type JobInfo struct {
	Name      string    `json:"name"`
	Spec      string    `json:"spec"`
	NextRunAt time.Time `json:"next_run_at"`
	LastRunAt time.Time `json:"last_run_at"`
}

type job struct {
	name  string
	spec  string
	run   func()
	entry cron.EntryID
}

// jobTable lists the background jobs in display order.
func (a *Application) jobTable() []*job {
	refresh := a.appConfig.Jobs.DashboardRefresh
	if refresh == "" {
		refresh = "@every 5m"
	}
	return []*job{
		{name: "monitor", spec: "@every 30s", run: func() {
			go a.SchedSystemMonitorTask()
			go a.SchedProcessMonitorTask()
		}},
		{name: "dashboard", spec: refresh, run: a.SchedDashboardTask},
		{name: "workspaces", spec: "@every 1m", run: a.SchedEvictWorkspaces},
		{name: "oprlog-purge", spec: "@daily", run: func() {
			n := a.PurgeOprLogs(a.appConfig.Jobs.OprLogDays)
			zap.L().Info("operation logs purged", zap.Int64("rows", n))
		}},
		{name: "token-expiry", spec: "@hourly", run: a.SchedTokenExpiryTask},
	}
}

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	for _, j := range a.jobs {
		j.entry, err = a.sched.AddFunc(j.spec, j.run)
		if err != nil {
			zap.S().Errorf("init job %s error %s", j.name, err.Error())
		}
	}

	a.sched.Start()
	go a.SchedDashboardTask()
}

// Jobs reports the background jobs and, once scheduled, their run times.
func (a *Application) Jobs() []JobInfo {
	out := make([]JobInfo, 0, len(a.jobs))
	for _, j := range a.jobs {
		info := JobInfo{Name: j.name, Spec: j.spec}
		if a.sched != nil && j.entry != 0 {
			e := a.sched.Entry(j.entry)
			info.NextRunAt, info.LastRunAt = e.Next, e.Prev
		}
		out = append(out, info)
	}
	return out
}

// RunJobNow starts the named job without waiting for it. Jobs may use the
// worker pool themselves, so they run on their own goroutine.
func (a *Application) RunJobNow(name string) error {
	for _, j := range a.jobs {
		if j.name == name {
			zap.L().Info("job triggered", zap.String("job", name))
			go func(run func()) {
				defer func() {
					if err := recover(); err != nil {
						zap.S().Error(err)
					}
				}()
				run()
			}(j.run)
			return nil
		}
	}
	return ErrJobNotFound
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // percentage * 100
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("backoffice_cpuuse", int64(cpuuse*100))
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("backoffice_memuse", int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}

	if a.workspaces != nil {
		metrics.SetGauge("backoffice_workspaces", int64(a.workspaces.Len()))
	}
}

// SchedEvictWorkspaces drops session workspaces that went idle.
func (a *Application) SchedEvictWorkspaces() {
	if a.workspaces == nil {
		return
	}
	if n := a.workspaces.Evict(a.appConfig.WorkspaceIdle()); n > 0 {
		zap.L().Info("idle workspaces evicted", zap.Int("count", n))
	}
}

// SchedDashboardTask refreshes the cached dashboard counts with the most
// recently saved token that has not expired.
func (a *Application) SchedDashboardTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	operator := a.freshestOperator(time.Now())
	if operator == "" {
		zap.L().Debug("dashboard refresh skipped, no usable token")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.appConfig.BackendTimeout())
	defer cancel()
	snap := a.refreshPooled(ctx, a.tokens.Source(operator))
	zap.L().Debug("dashboard refreshed",
		zap.String("operator", operator),
		zap.Int("resources", len(snap.Counts)))
}

// SchedTokenExpiryTask warns about tokens that expire soon.
func (a *Application) SchedTokenExpiryTask() {
	if a.tokens == nil {
		return
	}
	recs, err := a.tokens.All()
	if err != nil {
		zap.L().Error("list tokens failed", zap.Error(err))
		return
	}
	now := time.Now()
	for _, rec := range recs {
		switch {
		case rec.ExpiresAt.IsZero():
		case rec.Expired(now):
			zap.L().Warn("operator token expired",
				zap.String("operator", rec.Operator),
				zap.Time("expires_at", rec.ExpiresAt))
		case rec.ExpiresAt.Sub(now) < tokenExpiryWarning:
			zap.L().Info("operator token expires soon",
				zap.String("operator", rec.Operator),
				zap.Time("expires_at", rec.ExpiresAt))
		}
	}
}

func (a *Application) freshestOperator(now time.Time) string {
	if a.tokens == nil {
		return ""
	}
	recs, err := a.tokens.All()
	if err != nil {
		zap.L().Error("list tokens failed", zap.Error(err))
		return ""
	}
	var (
		best  string
		saved time.Time
	)
	for _, rec := range recs {
		if rec.Expired(now) {
			continue
		}
		if best == "" || rec.SavedAt.After(saved) {
			best, saved = rec.Operator, rec.SavedAt
		}
	}
	return best
}
