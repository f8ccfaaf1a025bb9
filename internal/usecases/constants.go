package usecases

import "time"

// Engine fee configuration defaults.
const (
	DefaultFeePercentage = 1.5  // 1.5% of total asset value
	DefaultMinimumFee    = 0.01 // fee floor in fee-units
)

// Queue limits and timing defaults.
const (
	DefaultMaxTransferSize   = 10
	DefaultSettlementTimeout = 30 * time.Second
	DefaultPendingTTL        = 1 * time.Hour
)
