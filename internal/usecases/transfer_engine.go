package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"eqic-a2a.backend/internal/domain/entities"
	domainerrors "eqic-a2a.backend/internal/domain/errors"
	"eqic-a2a.backend/internal/domain/repositories"
	"eqic-a2a.backend/pkg/logger"
	"eqic-a2a.backend/pkg/utils"
)

// EngineConfig holds transfer engine configuration.
type EngineConfig struct {
	FeePercentage     float64       // percentage of total asset value, e.g. 1.5 = 1.5%
	MinimumFee        float64       // fee floor in fee-units
	MaxTransferSize   int           // max assets per transfer, 0 disables the cap
	SettlementTimeout time.Duration // per-transfer settlement deadline
}

// DefaultEngineConfig returns the reference engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FeePercentage:     DefaultFeePercentage,
		MinimumFee:        DefaultMinimumFee,
		MaxTransferSize:   DefaultMaxTransferSize,
		SettlementTimeout: DefaultSettlementTimeout,
	}
}

// TransferEngine owns the pending queue and terminal history of transfer
// requests. Requests are exclusively owned by the engine for their entire
// life; callers only ever receive copies.
type TransferEngine struct {
	cfg        EngineConfig
	settlement repositories.Settlement
	archive    repositories.TransferArchiveRepository

	mu        sync.Mutex
	queue     []*entities.TransferRequest // pending + processing, FIFO
	history   []*entities.TransferRequest // terminal, append order
	queued    map[string]*entities.TransferRequest
	supported map[string]struct{}
}

// NewTransferEngine creates a transfer engine. The supported-platform set is
// snapshotted from the registry so createTransfer validation stays cheap and
// local. The archive repository is optional; pass nil to keep history purely
// in memory.
func NewTransferEngine(
	cfg EngineConfig,
	registry *PlatformRegistry,
	settlement repositories.Settlement,
	archive repositories.TransferArchiveRepository,
) *TransferEngine {
	supported := make(map[string]struct{})
	if registry != nil {
		for _, id := range registry.SupportedPlatformIDs() {
			supported[id] = struct{}{}
		}
	}
	return &TransferEngine{
		cfg:        cfg,
		settlement: settlement,
		archive:    archive,
		queued:     make(map[string]*entities.TransferRequest),
		supported:  supported,
	}
}

// CreateTransfer validates input and appends a new pending request to the
// queue. Validation fails fast: the first violation wins and nothing is
// created or queued.
func (e *TransferEngine) CreateTransfer(ctx context.Context, input *entities.CreateTransferInput) (*entities.TransferRequest, error) {
	if input == nil || input.SourcePlatform == "" || input.TargetPlatform == "" {
		return nil, domainerrors.BadRequest("source and target platforms are required")
	}
	if _, ok := e.supported[input.SourcePlatform]; !ok {
		return nil, domainerrors.NewAppError(http.StatusBadRequest, "unsupported platform specified", domainerrors.ErrUnsupportedPlatform)
	}
	if _, ok := e.supported[input.TargetPlatform]; !ok {
		return nil, domainerrors.NewAppError(http.StatusBadRequest, "unsupported platform specified", domainerrors.ErrUnsupportedPlatform)
	}
	if len(input.Assets) == 0 {
		return nil, domainerrors.BadRequest("no assets specified for transfer")
	}
	if e.cfg.MaxTransferSize > 0 && len(input.Assets) > e.cfg.MaxTransferSize {
		return nil, domainerrors.BadRequest(fmt.Sprintf("transfer exceeds maximum batch size of %d assets", e.cfg.MaxTransferSize))
	}
	if input.WalletAddress == "" {
		return nil, domainerrors.BadRequest("valid wallet is required for transfer")
	}

	assets := make([]entities.Asset, len(input.Assets))
	copy(assets, input.Assets)

	// UUIDv7 is time-ordered, which keeps queue ids roughly FIFO-sortable
	// even across restarts.
	transfer := &entities.TransferRequest{
		ID:             utils.GenerateUUIDv7().String(),
		SourcePlatform: input.SourcePlatform,
		TargetPlatform: input.TargetPlatform,
		Assets:         assets,
		WalletAddress:  input.WalletAddress,
		Fee:            e.calculateFee(assets),
		State:          entities.TransferStatePending,
		CreatedAt:      time.Now(),
	}

	e.mu.Lock()
	e.queue = append(e.queue, transfer)
	e.queued[transfer.ID] = transfer
	e.mu.Unlock()

	return transfer.Clone(), nil
}

// ProcessTransfer advances a pending request through processing to a terminal
// state. Exactly one concurrent call can claim a given id; the loser gets a
// conflict error. Terminal requests always leave the queue and enter history
// exactly once.
func (e *TransferEngine) ProcessTransfer(ctx context.Context, id string) (*entities.TransferRequest, error) {
	e.mu.Lock()
	transfer, ok := e.queued[id]
	if !ok {
		e.mu.Unlock()
		return nil, domainerrors.NotFound(fmt.Sprintf("transfer with ID %s not found", id))
	}
	if transfer.State != entities.TransferStatePending {
		state := transfer.State
		e.mu.Unlock()
		return nil, domainerrors.Conflict(fmt.Sprintf("transfer %s is already %s", id, state))
	}
	transfer.State = entities.TransferStateProcessing
	transfer.ProcessedAt = null.TimeFrom(time.Now())
	snapshot := transfer.Clone()
	e.mu.Unlock()

	// Settlement runs outside the engine lock so unrelated ids keep
	// processing concurrently. This call may block for a network round trip.
	settleCtx := ctx
	if e.cfg.SettlementTimeout > 0 {
		var cancel context.CancelFunc
		settleCtx, cancel = context.WithTimeout(ctx, e.cfg.SettlementTimeout)
		defer cancel()
	}
	txRef, settleErr := e.settlement.Submit(settleCtx, snapshot)

	e.mu.Lock()
	var appErr *domainerrors.AppError
	if settleErr != nil {
		reason := settleErr.Error()
		wrapped := domainerrors.ErrSettlementFailed
		if errors.Is(settleErr, context.DeadlineExceeded) {
			reason = "settlement timeout"
			wrapped = domainerrors.ErrSettlementTimeout
		}
		transfer.State = entities.TransferStateFailed
		transfer.ErrorReason = null.StringFrom(reason)
		appErr = domainerrors.NewAppError(http.StatusBadGateway, reason, wrapped)
	} else {
		transfer.State = entities.TransferStateCompleted
		transfer.CompletedAt = null.TimeFrom(time.Now())
		transfer.TransactionReference = null.StringFrom(txRef)
	}
	e.removeFromQueueLocked(id)
	e.history = append(e.history, transfer)
	result := transfer.Clone()
	e.mu.Unlock()

	e.archiveTerminal(result)

	if appErr != nil {
		return result, appErr
	}
	return result, nil
}

// ExpireStale fails every pending request created before the cutoff and moves
// it to history. Requests already claimed by a processor are left alone.
// Returns the number of expired requests.
func (e *TransferEngine) ExpireStale(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	e.mu.Lock()
	var expired []*entities.TransferRequest
	for _, transfer := range e.queue {
		if transfer.State != entities.TransferStatePending {
			continue
		}
		if transfer.CreatedAt.After(cutoff) {
			continue
		}
		transfer.State = entities.TransferStateFailed
		transfer.ErrorReason = null.StringFrom("transfer request expired")
		expired = append(expired, transfer)
	}
	for _, transfer := range expired {
		e.removeFromQueueLocked(transfer.ID)
		e.history = append(e.history, transfer)
	}
	copies := make([]*entities.TransferRequest, 0, len(expired))
	for _, transfer := range expired {
		copies = append(copies, transfer.Clone())
	}
	e.mu.Unlock()

	for _, transfer := range copies {
		e.archiveTerminal(transfer)
	}
	return len(copies)
}

// GetTransferHistory returns terminal requests for a wallet in history-append
// order, oldest first.
func (e *TransferEngine) GetTransferHistory(walletAddress string) []*entities.TransferRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	var transfers []*entities.TransferRequest
	for _, transfer := range e.history {
		if transfer.WalletAddress == walletAddress {
			transfers = append(transfers, transfer.Clone())
		}
	}
	return transfers
}

// GetPendingTransfers returns queued (pending or processing) requests for a
// wallet in queue order.
func (e *TransferEngine) GetPendingTransfers(walletAddress string) []*entities.TransferRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	var transfers []*entities.TransferRequest
	for _, transfer := range e.queue {
		if transfer.WalletAddress == walletAddress {
			transfers = append(transfers, transfer.Clone())
		}
	}
	return transfers
}

// QueueLength reports the number of queued (non-terminal) requests.
func (e *TransferEngine) QueueLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// calculateFee computes the creation-time fee from the asset value sum. The
// fee is fixed for the life of the request.
func (e *TransferEngine) calculateFee(assets []entities.Asset) float64 {
	totalValue := 0.0
	for _, asset := range assets {
		totalValue += asset.Value
	}
	fee := totalValue * (e.cfg.FeePercentage / 100)
	if fee < e.cfg.MinimumFee {
		fee = e.cfg.MinimumFee
	}
	return fee
}

func (e *TransferEngine) removeFromQueueLocked(id string) {
	delete(e.queued, id)
	for i, transfer := range e.queue {
		if transfer.ID == id {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			return
		}
	}
}

// archiveTerminal persists a terminal request best-effort. Archive failures
// never fail the transfer itself.
func (e *TransferEngine) archiveTerminal(transfer *entities.TransferRequest) {
	if e.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.archive.Append(ctx, transfer); err != nil {
		logger.Warn(ctx, "failed to archive terminal transfer",
			zap.String("transfer_id", transfer.ID),
			zap.Error(err),
		)
	}
}
