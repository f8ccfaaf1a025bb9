package jobs

import (
	"context"
	"log"
	"time"
)

// StaleExpirer fails pending transfers older than the cutoff and reports how
// many were expired. Implemented by the transfer engine.
type StaleExpirer interface {
	ExpireStale(olderThan time.Duration) int
}

// TransferExpiryJob handles expiring transfer requests that were queued but
// never processed.
type TransferExpiryJob struct {
	engine     StaleExpirer
	interval   time.Duration
	pendingTTL time.Duration
	stop       chan struct{}
}

func NewTransferExpiryJob(engine StaleExpirer, pendingTTL time.Duration) *TransferExpiryJob {
	return &TransferExpiryJob{
		engine:     engine,
		interval:   30 * time.Second, // Check every 30 seconds
		pendingTTL: pendingTTL,
		stop:       make(chan struct{}),
	}
}

func (j *TransferExpiryJob) Start(ctx context.Context) {
	log.Println("🕐 Starting transfer expiry job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Transfer expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Transfer expiry job stopped")
			return
		case <-ticker.C:
			if expired := j.engine.ExpireStale(j.pendingTTL); expired > 0 {
				log.Printf("✅ Expired %d stale transfer requests", expired)
			}
		}
	}
}

func (j *TransferExpiryJob) Stop() {
	close(j.stop)
}
