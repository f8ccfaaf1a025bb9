package usecases

import (
	"context"
	"fmt"

	"eqic-a2a.backend/internal/domain/entities"
	domainerrors "eqic-a2a.backend/internal/domain/errors"
	"eqic-a2a.backend/internal/domain/repositories"
	"eqic-a2a.backend/pkg/utils"
)

// TransferAppUsecase wires the registry, engine and the external asset
// provider into the application-level transfer workflows: quoting a route,
// creating a transfer from owned asset ids, and reading the durable archive.
type TransferAppUsecase struct {
	registry      *PlatformRegistry
	engine        *TransferEngine
	assetProvider repositories.AssetProvider
	archive       repositories.TransferArchiveRepository
}

// NewTransferAppUsecase creates a new transfer app usecase
func NewTransferAppUsecase(
	registry *PlatformRegistry,
	engine *TransferEngine,
	assetProvider repositories.AssetProvider,
	archive repositories.TransferArchiveRepository,
) *TransferAppUsecase {
	return &TransferAppUsecase{
		registry:      registry,
		engine:        engine,
		assetProvider: assetProvider,
		archive:       archive,
	}
}

// QuoteTransfer previews the platform-side route cost and the engine fee for
// an asset batch without creating anything.
func (u *TransferAppUsecase) QuoteTransfer(sourcePlatform, targetPlatform string, assets []entities.Asset) (*entities.TransferQuote, error) {
	compat := u.registry.CheckCompatibility(sourcePlatform, targetPlatform)
	if !compat.Compatible {
		return nil, domainerrors.BadRequest(compat.Reason)
	}

	totalValue := 0.0
	for _, asset := range assets {
		totalValue += asset.Value
	}

	return &entities.TransferQuote{
		Compatibility: compat,
		EngineFee:     u.engine.calculateFee(assets),
		TotalValue:    totalValue,
	}, nil
}

// CreateTransferForAssets resolves asset descriptors from the external
// provider and queues a transfer for them. The route is checked against the
// registry first so an incompatible pair fails before touching the queue.
func (u *TransferAppUsecase) CreateTransferForAssets(ctx context.Context, sourcePlatform, targetPlatform, walletAddress string, assetIDs []string) (*entities.TransferRequest, error) {
	if len(assetIDs) == 0 {
		return nil, domainerrors.BadRequest("no assets specified for transfer")
	}

	compat := u.registry.CheckCompatibility(sourcePlatform, targetPlatform)
	if !compat.Compatible {
		return nil, domainerrors.BadRequest(compat.Reason)
	}

	assets, err := u.assetProvider.GetAssets(ctx, walletAddress, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets: %w", err)
	}

	return u.engine.CreateTransfer(ctx, &entities.CreateTransferInput{
		SourcePlatform: sourcePlatform,
		TargetPlatform: targetPlatform,
		Assets:         assets,
		WalletAddress:  walletAddress,
	})
}

// GetArchivedHistory reads the durable archive for a wallet. Unlike the
// engine's in-memory history this survives restarts and is paginated.
func (u *TransferAppUsecase) GetArchivedHistory(ctx context.Context, walletAddress string, pagination utils.PaginationParams) ([]*entities.TransferRequest, int64, error) {
	if u.archive == nil {
		return nil, 0, domainerrors.NotFound("transfer archive not configured")
	}
	return u.archive.GetByWallet(ctx, walletAddress, pagination)
}
