package domain

import "strconv"

// UserAnalytics is one daily row of user statistics reported by the backend.
type UserAnalytics struct {
	ID           int64  `json:"id,omitempty" csv:"id" form:"-"`
	Date         string `json:"date" csv:"date"`
	TotalUsers   int    `json:"total_users" csv:"total_users"`
	ActiveUsers  int    `json:"active_users" csv:"active_users"`
	NewUsers     int    `json:"new_users" csv:"new_users"`
	PremiumUsers int    `json:"premium_users" csv:"premium_users"`
}

func (u UserAnalytics) Key() string {
	if u.ID == 0 {
		return u.Date
	}
	return strconv.FormatInt(u.ID, 10)
}
