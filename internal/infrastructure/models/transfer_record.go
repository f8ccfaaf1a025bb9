package models

import (
	"time"
)

// TransferRecord is the durable row for a terminal transfer request. Live
// queue entries are never persisted; only completed and failed transfers
// land here.
type TransferRecord struct {
	ID                   string  `gorm:"type:varchar(64);primaryKey"`
	SourcePlatform       string  `gorm:"type:varchar(50);not null;index"`
	TargetPlatform       string  `gorm:"type:varchar(50);not null;index"`
	WalletAddress        string  `gorm:"type:varchar(255);not null;index"`
	AssetsJSON           string  `gorm:"column:assets_json;type:text;not null"`
	Fee                  float64 `gorm:"not null"`
	State                string  `gorm:"type:varchar(20);not null;index"`
	TransactionReference *string `gorm:"type:varchar(255)"`
	ErrorReason          *string `gorm:"type:varchar(500)"`
	TransferCreatedAt    time.Time
	ProcessedAt          *time.Time
	CompletedAt          *time.Time
	CreatedAt            time.Time
}

// TableName sets the table name
func (TransferRecord) TableName() string {
	return "transfer_records"
}
