// Package analytics summarises the daily user statistics the backend reports.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/jyotishdesk/backoffice/internal/domain"
)

// Range is an inclusive date filter. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange reads loosely formatted bounds such as "2024-03-01",
// "01/03/2024" or "March 1, 2024". Empty strings leave the bound open.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if r.From, err = dateparse.ParseLocal(from); err != nil {
			return r, errors.Wrapf(err, "invalid from date %q", from)
		}
		r.From = startOfDay(r.From)
	}
	if to = strings.TrimSpace(to); to != "" {
		if r.To, err = dateparse.ParseLocal(to); err != nil {
			return r, errors.Wrapf(err, "invalid to date %q", to)
		}
		r.To = startOfDay(r.To)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, errors.New("to date is before from date")
	}
	return r, nil
}

func (r Range) contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Filter keeps the rows whose date falls in r, oldest first. Rows with an
// unreadable date are dropped.
func Filter(rows []domain.UserAnalytics, r Range) []domain.UserAnalytics {
	type dated struct {
		at  time.Time
		row domain.UserAnalytics
	}
	kept := make([]dated, 0, len(rows))
	for _, row := range rows {
		at, err := dateparse.ParseLocal(row.Date)
		if err != nil {
			continue
		}
		at = startOfDay(at)
		if r.contains(at) {
			kept = append(kept, dated{at: at, row: row})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })
	out := make([]domain.UserAnalytics, len(kept))
	for i, k := range kept {
		out[i] = k.row
	}
	return out
}

// Summary describes the active user series of a range.
type Summary struct {
	Days          int     `json:"days"`
	NewUsers      int     `json:"new_users"`
	LatestTotal   int     `json:"latest_total"`
	LatestPremium int     `json:"latest_premium"`
	ActiveMean    float64 `json:"active_mean"`
	ActiveMedian  float64 `json:"active_median"`
	ActiveMin     float64 `json:"active_min"`
	ActiveMax     float64 `json:"active_max"`
	ActiveStdDev  float64 `json:"active_stddev"`
	ActiveP90     float64 `json:"active_p90"`
}

// Summarize computes the summary of rows, which Filter has ordered.
func Summarize(rows []domain.UserAnalytics) (Summary, error) {
	s := Summary{Days: len(rows)}
	if len(rows) == 0 {
		return s, nil
	}
	active := make(stats.Float64Data, 0, len(rows))
	for _, row := range rows {
		active = append(active, float64(row.ActiveUsers))
		s.NewUsers += row.NewUsers
	}
	last := rows[len(rows)-1]
	s.LatestTotal = last.TotalUsers
	s.LatestPremium = last.PremiumUsers

	var err error
	if s.ActiveMean, err = active.Mean(); err != nil {
		return s, err
	}
	if s.ActiveMedian, err = active.Median(); err != nil {
		return s, err
	}
	if s.ActiveMin, err = active.Min(); err != nil {
		return s, err
	}
	if s.ActiveMax, err = active.Max(); err != nil {
		return s, err
	}
	if s.ActiveStdDev, err = active.StandardDeviation(); err != nil {
		return s, err
	}
	if s.ActiveP90, err = active.Percentile(90); err != nil {
		return s, err
	}
	for _, v := range []*float64{&s.ActiveMean, &s.ActiveStdDev} {
		if r, err := stats.Round(*v, 2); err == nil {
			*v = r
		}
	}
	return s, nil
}
