package repositories

import (
	"context"

	"eqic-a2a.backend/internal/domain/entities"
)

// Settlement is the external capability that actually commits a transfer.
// Submit may block for a network round trip and may fail; on success it
// returns an opaque transaction reference.
type Settlement interface {
	Submit(ctx context.Context, transfer *entities.TransferRequest) (string, error)
}
