package domain

import (
	"time"
)

// DataRoomStats is the read-only activity roll-up for an investor's data
// room. Rows are written by the data-room pipeline, never by this service;
// a missing row reads as all-zero activity.
type DataRoomStats struct {
	InvestorID       string     `gorm:"primaryKey;size:36" json:"investor_id"`
	LastAccessed     *time.Time `json:"last_accessed"`
	DocumentsViewed  int        `gorm:"default:0" json:"documents_viewed"`
	TimeSpentSeconds int        `gorm:"default:0" json:"time_spent_seconds"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for DataRoomStats
func (DataRoomStats) TableName() string {
	return "data_room_stats"
}
