package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eqic-a2a.backend/internal/domain/entities"
	domainerrors "eqic-a2a.backend/internal/domain/errors"
	"eqic-a2a.backend/internal/domain/repositories"
	"eqic-a2a.backend/internal/infrastructure/models"
	"eqic-a2a.backend/pkg/utils"
)

// transferArchiveRepo implements repositories.TransferArchiveRepository
type transferArchiveRepo struct {
	db *gorm.DB
}

// NewTransferArchiveRepository creates a new transfer archive repository
func NewTransferArchiveRepository(db *gorm.DB) repositories.TransferArchiveRepository {
	return &transferArchiveRepo{db: db}
}

// Append persists a terminal transfer. Re-appending the same id overwrites
// the existing row so a retried archive write stays idempotent.
func (r *transferArchiveRepo) Append(ctx context.Context, transfer *entities.TransferRequest) error {
	if !transfer.State.IsTerminal() {
		return domainerrors.ErrInvalidInput
	}

	m, err := r.toModel(transfer)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(m).Error
}

// GetByWallet returns archived transfers for a wallet, oldest first.
func (r *transferArchiveRepo) GetByWallet(ctx context.Context, walletAddress string, pagination utils.PaginationParams) ([]*entities.TransferRequest, int64, error) {
	var totalCount int64
	query := r.db.WithContext(ctx).Model(&models.TransferRecord{}).Where("wallet_address = ?", walletAddress)
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if pagination.Limit > 0 {
		query = query.Offset(pagination.CalculateOffset()).Limit(pagination.Limit)
	}

	var ms []models.TransferRecord
	if err := query.Order("transfer_created_at ASC").Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	transfers := make([]*entities.TransferRequest, 0, len(ms))
	for i := range ms {
		t, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, 0, err
		}
		transfers = append(transfers, t)
	}
	return transfers, totalCount, nil
}

// GetByID gets an archived transfer by ID
func (r *transferArchiveRepo) GetByID(ctx context.Context, id string) (*entities.TransferRequest, error) {
	var m models.TransferRecord
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m)
}

func (r *transferArchiveRepo) toModel(t *entities.TransferRequest) (*models.TransferRecord, error) {
	assetsJSON, err := json.Marshal(t.Assets)
	if err != nil {
		return nil, err
	}

	m := &models.TransferRecord{
		ID:                t.ID,
		SourcePlatform:    t.SourcePlatform,
		TargetPlatform:    t.TargetPlatform,
		WalletAddress:     t.WalletAddress,
		AssetsJSON:        string(assetsJSON),
		Fee:               t.Fee,
		State:             string(t.State),
		TransferCreatedAt: t.CreatedAt,
	}
	if t.TransactionReference.Valid {
		m.TransactionReference = &t.TransactionReference.String
	}
	if t.ErrorReason.Valid {
		m.ErrorReason = &t.ErrorReason.String
	}
	if t.ProcessedAt.Valid {
		processedAt := t.ProcessedAt.Time
		m.ProcessedAt = &processedAt
	}
	if t.CompletedAt.Valid {
		completedAt := t.CompletedAt.Time
		m.CompletedAt = &completedAt
	}
	return m, nil
}

func (r *transferArchiveRepo) toEntity(m *models.TransferRecord) (*entities.TransferRequest, error) {
	var assets []entities.Asset
	if err := json.Unmarshal([]byte(m.AssetsJSON), &assets); err != nil {
		return nil, err
	}

	t := &entities.TransferRequest{
		ID:             m.ID,
		SourcePlatform: m.SourcePlatform,
		TargetPlatform: m.TargetPlatform,
		Assets:         assets,
		WalletAddress:  m.WalletAddress,
		Fee:            m.Fee,
		State:          entities.TransferState(m.State),
		CreatedAt:      m.TransferCreatedAt,
	}
	if m.TransactionReference != nil {
		t.TransactionReference = null.StringFrom(*m.TransactionReference)
	}
	if m.ErrorReason != nil {
		t.ErrorReason = null.StringFrom(*m.ErrorReason)
	}
	if m.ProcessedAt != nil {
		t.ProcessedAt = null.TimeFrom(*m.ProcessedAt)
	}
	if m.CompletedAt != nil {
		t.CompletedAt = null.TimeFrom(*m.CompletedAt)
	}
	return t, nil
}
