package model

import "time"

const (
	AuditCreate       = "CREATE"
	AuditUpdate       = "UPDATE"
	AuditUpdateStatus = "UPDATE_STATUS"
	AuditDelete       = "DELETE"
	AuditReceive      = "RECEIVE"
	AuditLogin        = "LOGIN"
	AuditPurge        = "PURGE"
)

// AuditLog is append-only. OldValues and NewValues hold JSON snapshots.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	TableName string    `gorm:"column:table_name;type:varchar(50);not null;index" json:"table_name"`
	RecordID  *uint     `json:"record_id"`
	OldValues *string   `gorm:"type:text" json:"old_values"`
	NewValues *string   `gorm:"type:text" json:"new_values"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	RequestID string    `gorm:"type:varchar(64)" json:"request_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
