package repositories

import (
	"context"

	"eqic-a2a.backend/internal/domain/entities"
	"eqic-a2a.backend/pkg/utils"
)

// TransferArchiveRepository persists terminal transfer requests. The engine
// keeps the live queue in memory; completed and failed transfers are written
// here so history survives a restart.
type TransferArchiveRepository interface {
	Append(ctx context.Context, transfer *entities.TransferRequest) error
	GetByWallet(ctx context.Context, walletAddress string, pagination utils.PaginationParams) ([]*entities.TransferRequest, int64, error)
	GetByID(ctx context.Context, id string) (*entities.TransferRequest, error)
}
