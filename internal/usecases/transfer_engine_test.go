package usecases_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eqic-a2a.backend/internal/domain/entities"
	domainerrors "eqic-a2a.backend/internal/domain/errors"
	"eqic-a2a.backend/internal/domain/repositories"
	"eqic-a2a.backend/internal/usecases"
)

func newTestEngine(t *testing.T, settlement repositories.Settlement) *usecases.TransferEngine {
	t.Helper()
	registry := usecases.NewPlatformRegistry(usecases.DefaultRegistryConfig())
	return usecases.NewTransferEngine(usecases.DefaultEngineConfig(), registry, settlement, nil)
}

func validInput() *entities.CreateTransferInput {
	return &entities.CreateTransferInput{
		SourcePlatform: "solana",
		TargetPlatform: "ethereum",
		Assets:         []entities.Asset{{ID: "asset-1", Value: 100}},
		WalletAddress:  "0xPlayerWallet",
	}
}

func TestCreateTransfer_Success(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	transfer, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, transfer)

	assert.NotEmpty(t, transfer.ID)
	assert.Equal(t, entities.TransferStatePending, transfer.State)
	assert.Equal(t, "solana", transfer.SourcePlatform)
	assert.Equal(t, "ethereum", transfer.TargetPlatform)
	assert.Equal(t, "0xPlayerWallet", transfer.WalletAddress)
	// 1.5% of 100
	assert.InDelta(t, 1.5, transfer.Fee, 1e-9)
	assert.False(t, transfer.CreatedAt.IsZero())
	assert.False(t, transfer.ProcessedAt.Valid)
	assert.False(t, transfer.CompletedAt.Valid)
	assert.Equal(t, 1, engine.QueueLength())
}

func TestCreateTransfer_MinimumFeeFloor(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	input := validInput()
	input.Assets = []entities.Asset{{ID: "dust", Value: 0.1}}
	transfer, err := engine.CreateTransfer(context.Background(), input)
	require.NoError(t, err)
	// 1.5% of 0.1 = 0.0015, below the 0.01 floor
	assert.InDelta(t, 0.01, transfer.Fee, 1e-9)
}

func TestCreateTransfer_FeeSumsAssetValues(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	input := validInput()
	input.Assets = []entities.Asset{
		{ID: "a", Value: 100},
		{ID: "b", Value: 50},
		{ID: "c", Value: 50},
	}
	transfer, err := engine.CreateTransfer(context.Background(), input)
	require.NoError(t, err)
	// 1.5% of 200
	assert.InDelta(t, 3.0, transfer.Fee, 1e-9)
}

func TestCreateTransfer_ValidationFailures(t *testing.T) {
	tooMany := make([]entities.Asset, usecases.DefaultMaxTransferSize+1)
	for i := range tooMany {
		tooMany[i] = entities.Asset{Value: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*entities.CreateTransferInput)
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing source platform",
			mutate:  func(in *entities.CreateTransferInput) { in.SourcePlatform = "" },
			wantErr: domainerrors.ErrInvalidInput,
			wantMsg: "source and target platforms are required",
		},
		{
			name:    "missing target platform",
			mutate:  func(in *entities.CreateTransferInput) { in.TargetPlatform = "" },
			wantErr: domainerrors.ErrInvalidInput,
			wantMsg: "source and target platforms are required",
		},
		{
			name:    "unknown source platform",
			mutate:  func(in *entities.CreateTransferInput) { in.SourcePlatform = "bitcoin" },
			wantErr: domainerrors.ErrUnsupportedPlatform,
			wantMsg: "unsupported platform specified",
		},
		{
			name:    "unknown target platform",
			mutate:  func(in *entities.CreateTransferInput) { in.TargetPlatform = "bitcoin" },
			wantErr: domainerrors.ErrUnsupportedPlatform,
			wantMsg: "unsupported platform specified",
		},
		{
			name:    "no assets",
			mutate:  func(in *entities.CreateTransferInput) { in.Assets = nil },
			wantErr: domainerrors.ErrInvalidInput,
			wantMsg: "no assets specified for transfer",
		},
		{
			name:    "batch too large",
			mutate:  func(in *entities.CreateTransferInput) { in.Assets = tooMany },
			wantErr: domainerrors.ErrInvalidInput,
			wantMsg: "transfer exceeds maximum batch size",
		},
		{
			name:    "missing wallet",
			mutate:  func(in *entities.CreateTransferInput) { in.WalletAddress = "" },
			wantErr: domainerrors.ErrInvalidInput,
			wantMsg: "valid wallet is required for transfer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, okSettlement("0xabc"))
			input := validInput()
			tt.mutate(input)

			transfer, err := engine.CreateTransfer(context.Background(), input)
			require.Error(t, err)
			assert.Nil(t, transfer)
			assert.ErrorIs(t, err, tt.wantErr)
			var appErr *domainerrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Message, tt.wantMsg)
			// Nothing was queued
			assert.Equal(t, 0, engine.QueueLength())
		})
	}
}

func TestCreateTransfer_BatchAtCapIsAccepted(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	input := validInput()
	input.Assets = make([]entities.Asset, usecases.DefaultMaxTransferSize)
	for i := range input.Assets {
		input.Assets[i] = entities.Asset{Value: 1}
	}
	_, err := engine.CreateTransfer(context.Background(), input)
	assert.NoError(t, err)
}

func TestCreateTransfer_ReturnsDetachedCopy(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	created.State = entities.TransferStateCompleted
	created.Assets[0].Value = 999999

	pending := engine.GetPendingTransfers("0xPlayerWallet")
	require.Len(t, pending, 1)
	assert.Equal(t, entities.TransferStatePending, pending[0].State)
	assert.Equal(t, 100.0, pending[0].Assets[0].Value)
}

func TestProcessTransfer_Success(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xdeadbeef"))

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	processed, err := engine.ProcessTransfer(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, processed)

	assert.Equal(t, entities.TransferStateCompleted, processed.State)
	assert.True(t, processed.ProcessedAt.Valid)
	assert.True(t, processed.CompletedAt.Valid)
	assert.Equal(t, "0xdeadbeef", processed.TransactionReference.String)
	assert.False(t, processed.ErrorReason.Valid)

	// Terminal requests leave the queue and land in history exactly once
	assert.Equal(t, 0, engine.QueueLength())
	assert.Empty(t, engine.GetPendingTransfers("0xPlayerWallet"))
	history := engine.GetTransferHistory("0xPlayerWallet")
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
}

func TestProcessTransfer_NotFound(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	transfer, err := engine.ProcessTransfer(context.Background(), "missing-id")
	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestProcessTransfer_TerminalIDIsNotFound(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	_, err = engine.ProcessTransfer(context.Background(), created.ID)
	require.NoError(t, err)

	// A completed transfer is no longer queued; reprocessing cannot resurrect it
	_, err = engine.ProcessTransfer(context.Background(), created.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Len(t, engine.GetTransferHistory("0xPlayerWallet"), 1)
}

func TestProcessTransfer_SettlementFailure(t *testing.T) {
	engine := newTestEngine(t, settlementFunc(func(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
		return "", errors.New("chain rejected the batch")
	}))

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	processed, err := engine.ProcessTransfer(context.Background(), created.ID)
	require.Error(t, err)
	require.NotNil(t, processed, "failed transfer is still returned alongside the error")

	assert.ErrorIs(t, err, domainerrors.ErrSettlementFailed)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Code)

	assert.Equal(t, entities.TransferStateFailed, processed.State)
	assert.Equal(t, "chain rejected the batch", processed.ErrorReason.String)
	assert.False(t, processed.CompletedAt.Valid)
	assert.False(t, processed.TransactionReference.Valid)

	// Failures are terminal too
	assert.Equal(t, 0, engine.QueueLength())
	assert.Len(t, engine.GetTransferHistory("0xPlayerWallet"), 1)
}

func TestProcessTransfer_SettlementTimeout(t *testing.T) {
	registry := usecases.NewPlatformRegistry(usecases.DefaultRegistryConfig())
	cfg := usecases.DefaultEngineConfig()
	cfg.SettlementTimeout = 20 * time.Millisecond
	engine := usecases.NewTransferEngine(cfg, registry, settlementFunc(func(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	processed, err := engine.ProcessTransfer(context.Background(), created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrSettlementTimeout)
	require.NotNil(t, processed)
	assert.Equal(t, entities.TransferStateFailed, processed.State)
	assert.Equal(t, "settlement timeout", processed.ErrorReason.String)
}

func TestProcessTransfer_ConcurrentClaim(t *testing.T) {
	release := make(chan struct{})
	engine := newTestEngine(t, settlementFunc(func(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
		<-release
		return "0xabc", nil
	}))

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	var once sync.Once
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.ProcessTransfer(context.Background(), created.ID)
			errs[i] = err
			// First loser proves the winner already claimed; let it finish
			if err != nil {
				once.Do(func() { close(release) })
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		isConflict := errors.Is(err, domainerrors.ErrConflict)
		isNotFound := errors.Is(err, domainerrors.ErrNotFound)
		assert.True(t, isConflict || isNotFound, "loser got unexpected error: %v", err)
	}
	assert.Equal(t, 1, winners, "exactly one concurrent call claims the transfer")
	assert.Len(t, engine.GetTransferHistory("0xPlayerWallet"), 1)
}

func TestProcessTransfer_IndependentIDsSettleConcurrently(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	engine := newTestEngine(t, settlementFunc(func(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
		started <- struct{}{}
		<-release
		return "0x" + transfer.ID, nil
	}))

	first, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)
	second, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := engine.ProcessTransfer(context.Background(), id)
			assert.NoError(t, err)
		}(id)
	}

	// Both settlements must be in flight at once; a serialized engine would
	// deadlock here.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("settlement calls did not overlap")
		}
	}
	close(release)
	wg.Wait()

	assert.Len(t, engine.GetTransferHistory("0xPlayerWallet"), 2)
}

func TestProcessTransfer_ArchivesTerminalState(t *testing.T) {
	archive := new(MockTransferArchive)
	archive.On("Append", mock.Anything, mock.AnythingOfType("*entities.TransferRequest")).Return(nil)

	registry := usecases.NewPlatformRegistry(usecases.DefaultRegistryConfig())
	engine := usecases.NewTransferEngine(usecases.DefaultEngineConfig(), registry, okSettlement("0xabc"), archive)

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)
	_, err = engine.ProcessTransfer(context.Background(), created.ID)
	require.NoError(t, err)

	archive.AssertCalled(t, "Append", mock.Anything, mock.MatchedBy(func(tr *entities.TransferRequest) bool {
		return tr.ID == created.ID && tr.State == entities.TransferStateCompleted
	}))
}

func TestProcessTransfer_ArchiveFailureDoesNotFailTransfer(t *testing.T) {
	archive := new(MockTransferArchive)
	archive.On("Append", mock.Anything, mock.Anything).Return(errors.New("db down"))

	registry := usecases.NewPlatformRegistry(usecases.DefaultRegistryConfig())
	engine := usecases.NewTransferEngine(usecases.DefaultEngineConfig(), registry, okSettlement("0xabc"), archive)

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	processed, err := engine.ProcessTransfer(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, entities.TransferStateCompleted, processed.State)
}

func TestExpireStale(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	first, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)
	second, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	// Zero cutoff expires everything created up to now
	expired := engine.ExpireStale(0)
	assert.Equal(t, 2, expired)
	assert.Equal(t, 0, engine.QueueLength())

	history := engine.GetTransferHistory("0xPlayerWallet")
	require.Len(t, history, 2)
	for _, tr := range history {
		assert.Equal(t, entities.TransferStateFailed, tr.State)
		assert.Equal(t, "transfer request expired", tr.ErrorReason.String)
	}
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
}

func TestExpireStale_FreshRequestsSurvive(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	_, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	expired := engine.ExpireStale(time.Hour)
	assert.Equal(t, 0, expired)
	assert.Equal(t, 1, engine.QueueLength())
}

func TestGetTransferHistory_FiltersByWallet(t *testing.T) {
	engine := newTestEngine(t, okSettlement("0xabc"))

	mine := validInput()
	theirs := validInput()
	theirs.WalletAddress = "0xSomeoneElse"

	first, err := engine.CreateTransfer(context.Background(), mine)
	require.NoError(t, err)
	second, err := engine.CreateTransfer(context.Background(), theirs)
	require.NoError(t, err)

	_, err = engine.ProcessTransfer(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = engine.ProcessTransfer(context.Background(), second.ID)
	require.NoError(t, err)

	history := engine.GetTransferHistory("0xPlayerWallet")
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Empty(t, engine.GetTransferHistory("0xNobody"))
}

func TestGetPendingTransfers_IncludesProcessing(t *testing.T) {
	release := make(chan struct{})
	engine := newTestEngine(t, settlementFunc(func(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
		<-release
		return "0xabc", nil
	}))

	created, err := engine.CreateTransfer(context.Background(), validInput())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.ProcessTransfer(context.Background(), created.ID)
	}()

	// Wait for the claim to land
	require.Eventually(t, func() bool {
		pending := engine.GetPendingTransfers("0xPlayerWallet")
		return len(pending) == 1 && pending[0].State == entities.TransferStateProcessing
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	<-done
	assert.Empty(t, engine.GetPendingTransfers("0xPlayerWallet"))
}
