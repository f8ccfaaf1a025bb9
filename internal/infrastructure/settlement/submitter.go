package settlement

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"eqic-a2a.backend/internal/domain/entities"
)

// Submitter is the settlement capability boundary. It stands in for the
// network that would broadcast and confirm the transfer; the contract is
// opaque: submit, block until confirmed, return a transaction reference or
// an error.
type Submitter struct {
	latency time.Duration
}

// NewSubmitter creates a submitter with a fixed confirmation latency.
func NewSubmitter(latency time.Duration) *Submitter {
	return &Submitter{latency: latency}
}

// Submit commits a transfer and returns its transaction reference. The call
// honors context cancellation and deadline while waiting for confirmation.
func (s *Submitter) Submit(ctx context.Context, transfer *entities.TransferRequest) (string, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	// The reference is a keccak hash over the request id, its route and a
	// random nonce, which makes it collision-resistant and opaque like a
	// real transaction hash.
	hash := crypto.Keccak256Hash(
		[]byte(transfer.ID),
		[]byte(transfer.SourcePlatform),
		[]byte(transfer.TargetPlatform),
		nonce,
	)
	return hexutil.Encode(hash.Bytes()), nil
}
