package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Platform represents an asset-custody platform (e.g. a blockchain) with its
// own fee and latency profile.
type Platform struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Icon                string    `json:"icon,omitempty"`
	TransferFeeBaseRate float64   `json:"transferFeeBaseRate"`
	EstimatedTime       string    `json:"estimatedTime"`
	Supported           bool      `json:"supported"`
	TestnetAvailable    bool      `json:"testnetAvailable"`
	MainnetAvailable    bool      `json:"mainnetAvailable"`
	CreatedAt           time.Time `json:"createdAt"`
}

// PlatformUpdate carries a partial-field merge for an existing platform.
// The platform ID itself is never updatable.
type PlatformUpdate struct {
	Name                null.String  `json:"name"`
	Description         null.String  `json:"description"`
	Icon                null.String  `json:"icon"`
	TransferFeeBaseRate null.Float64 `json:"transferFeeBaseRate"`
	EstimatedTime       null.String  `json:"estimatedTime"`
	Supported           null.Bool    `json:"supported"`
	TestnetAvailable    null.Bool    `json:"testnetAvailable"`
	MainnetAvailable    null.Bool    `json:"mainnetAvailable"`
}

// CompatibilityResult is the computed answer to "can source transfer to
// target, and at what cost". Derived per query, never stored.
type CompatibilityResult struct {
	Compatible     bool    `json:"compatible"`
	Reason         string  `json:"reason,omitempty"`
	RequiresBridge bool    `json:"requiresBridge"`
	EstimatedFee   float64 `json:"estimatedFee"`
	EstimatedTime  string  `json:"estimatedTime,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}
