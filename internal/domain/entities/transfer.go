package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// TransferState represents the lifecycle state of a transfer request
type TransferState string

const (
	TransferStatePending    TransferState = "pending"
	TransferStateProcessing TransferState = "processing"
	TransferStateCompleted  TransferState = "completed"
	TransferStateFailed     TransferState = "failed"
)

// IsTerminal reports whether no further transitions are permitted
func (s TransferState) IsTerminal() bool {
	return s == TransferStateCompleted || s == TransferStateFailed
}

// Asset is an opaque asset descriptor. Ownership and metadata semantics
// belong to the asset generator, not the transfer core.
type Asset struct {
	ID    string  `json:"id,omitempty"`
	Value float64 `json:"value"`
}

// TransferRequest is the unit of work moving assets between platforms.
// The fee is computed once at creation and never changes afterwards.
type TransferRequest struct {
	ID                   string        `json:"id"`
	SourcePlatform       string        `json:"sourcePlatform"`
	TargetPlatform       string        `json:"targetPlatform"`
	Assets               []Asset       `json:"assets"`
	WalletAddress        string        `json:"walletAddress"`
	Fee                  float64       `json:"fee"`
	State                TransferState `json:"state"`
	CreatedAt            time.Time     `json:"createdAt"`
	ProcessedAt          null.Time     `json:"processedAt,omitempty"`
	CompletedAt          null.Time     `json:"completedAt,omitempty"`
	TransactionReference null.String   `json:"transactionReference,omitempty"`
	ErrorReason          null.String   `json:"errorReason,omitempty"`
}

// Clone returns a deep copy. The engine hands out copies so external
// callers never hold a mutable handle on a queued request.
func (t *TransferRequest) Clone() *TransferRequest {
	c := *t
	c.Assets = make([]Asset, len(t.Assets))
	copy(c.Assets, t.Assets)
	return &c
}

// CreateTransferInput represents input for creating a transfer request
type CreateTransferInput struct {
	SourcePlatform string  `json:"sourcePlatform" binding:"required"`
	TargetPlatform string  `json:"targetPlatform" binding:"required"`
	Assets         []Asset `json:"assets" binding:"required"`
	WalletAddress  string  `json:"walletAddress"`
}

// TransferQuote pairs a compatibility check with the fee the engine would
// charge for a given asset batch.
type TransferQuote struct {
	Compatibility CompatibilityResult `json:"compatibility"`
	EngineFee     float64             `json:"engineFee"`
	TotalValue    float64             `json:"totalValue"`
}
