package domain

import (
	"time"
)

// SysOprLog records one content change made through the back-office.
type SysOprLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	OprName   string    `gorm:"size:128;index" json:"opr_name"`
	OprIp     string    `gorm:"size:64" json:"opr_ip"`
	OptAction string    `gorm:"size:64;index" json:"opt_action"` // e.g. "products.update"
	OptDesc   string    `gorm:"size:1024" json:"opt_desc"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}

// TableName Specify table name
func (SysOprLog) TableName() string {
	return "sys_opr_log"
}
