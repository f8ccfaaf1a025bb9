package repositories

import (
	"context"

	"eqic-a2a.backend/internal/domain/entities"
)

// AssetProvider resolves opaque asset descriptors for a wallet. Asset
// generation and ownership checks live outside the transfer core.
type AssetProvider interface {
	GetAssets(ctx context.Context, walletAddress string, assetIDs []string) ([]entities.Asset, error)
}
