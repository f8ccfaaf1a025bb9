package usecases_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eqic-a2a.backend/internal/domain/entities"
	"eqic-a2a.backend/pkg/utils"
)

// settlementFunc adapts a function to the Settlement port.
type settlementFunc func(ctx context.Context, transfer *entities.TransferRequest) (string, error)

func (f settlementFunc) Submit(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
	return f(ctx, transfer)
}

func okSettlement(ref string) settlementFunc {
	return func(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
		return ref, nil
	}
}

// Mock AssetProvider
type MockAssetProvider struct {
	mock.Mock
}

func (m *MockAssetProvider) GetAssets(ctx context.Context, walletAddress string, assetIDs []string) ([]entities.Asset, error) {
	args := m.Called(ctx, walletAddress, assetIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Asset), args.Error(1)
}

// Mock TransferArchiveRepository
type MockTransferArchive struct {
	mock.Mock
}

func (m *MockTransferArchive) Append(ctx context.Context, transfer *entities.TransferRequest) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *MockTransferArchive) GetByWallet(ctx context.Context, walletAddress string, pagination utils.PaginationParams) ([]*entities.TransferRequest, int64, error) {
	args := m.Called(ctx, walletAddress, pagination)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*entities.TransferRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransferArchive) GetByID(ctx context.Context, id string) (*entities.TransferRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransferRequest), args.Error(1)
}
